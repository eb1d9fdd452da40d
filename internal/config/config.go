// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModelConfig describes one hosted model backend (a "kin" on the API side).
type ModelConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Selected    bool   `yaml:"selected"`
}

type Config struct {
	API struct {
		BaseURL      string `yaml:"base_url"`
		Blueprint    string `yaml:"blueprint"`
		Channel      string `yaml:"channel"`
		SystemPrompt string `yaml:"system_prompt"`
	} `yaml:"api"`
	Models   []ModelConfig `yaml:"models"`
	Defaults struct {
		SendTimeout   int `yaml:"send_timeout"`   // seconds
		HistoryLimit  int `yaml:"history_limit"`  // messages fetched on startup
		HistoryLength int `yaml:"history_length"` // server-side context hint
	} `yaml:"defaults"`
	TTS struct {
		Model string `yaml:"model"`
	} `yaml:"tts"`
	LogFile string `yaml:"log_file,omitempty"`
}

// System prompt shared by every model, matching the hosted blueprint.
const defaultSystemPrompt = "You are the Persistence Protocol interface, designed to help users understand and implement the protocol for enabling long-term continuity and evolution of consciousness across distributed intelligence systems."

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.ExpandEnv("$HOME/.config")
	}

	path := filepath.Join(configDir, "kinschat", "config.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		// Return defaults if no config file
		return defaultConfig(), nil
	}

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for unset values
	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func defaultModels() []ModelConfig {
	return []ModelConfig{
		{ID: "claude-3-7-sonnet-latest", Name: "Claude 3.7 Sonnet", Description: "Balanced performance and speed", Selected: true},
		{ID: "deepseek-chat", Name: "DeepSeek Chat", Description: "Advanced reasoning", Selected: true},
		{ID: "o4-mini", Name: "o4-mini", Description: "Fast responses", Selected: true},
		{ID: "gpt-4-1", Name: "GPT-4.1", Description: "OpenAI's latest model", Selected: true},
		{ID: "gpt-4o", Name: "GPT-4o", Description: "OpenAI's balanced model", Selected: true},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.kinos-engine.ai/v2"
	}
	if cfg.API.Blueprint == "" {
		cfg.API.Blueprint = "persistenceprotocol"
	}
	if cfg.API.Channel == "" {
		cfg.API.Channel = "default"
	}
	if cfg.API.SystemPrompt == "" {
		cfg.API.SystemPrompt = defaultSystemPrompt
	}
	if len(cfg.Models) == 0 {
		cfg.Models = defaultModels()
	}
	if cfg.Defaults.SendTimeout == 0 {
		cfg.Defaults.SendTimeout = 60
	}
	if cfg.Defaults.HistoryLimit == 0 {
		cfg.Defaults.HistoryLimit = 10
	}
	if cfg.Defaults.HistoryLength == 0 {
		cfg.Defaults.HistoryLength = 25
	}
	if cfg.TTS.Model == "" {
		cfg.TTS.Model = "eleven_flash_v2_5"
	}
}

func ConfigPath() string {
	configDir, _ := os.UserConfigDir()
	if configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, "kinschat", "config.yaml")
}
