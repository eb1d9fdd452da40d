// internal/kinos/media.go
// Image generation and text-to-speech. Both are opaque single-shot calls:
// no retries, failures surfaced to the caller as plain errors.
package kinos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Fixed parameters for the illustration endpoint.
const (
	imageAspectRatio = "ASPECT_1_1"
	imageModel       = "V_2"
	imageMagicPrompt = "AUTO"
)

type imageRequest struct {
	Prompt            string `json:"prompt"`
	AspectRatio       string `json:"aspect_ratio"`
	Model             string `json:"model"`
	MagicPromptOption string `json:"magic_prompt_option"`
}

// GenerateImage asks a kin for an illustration of prompt and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, kinID, prompt string) (string, error) {
	payload, err := json.Marshal(imageRequest{
		Prompt:            prompt,
		AspectRatio:       imageAspectRatio,
		Model:             imageModel,
		MagicPromptOption: imageMagicPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/blueprints/%s/kins/%s/images", c.baseURL, c.blueprint, kinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image generation failed with status %d", resp.StatusCode)
	}

	var decoded struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Data.URL == "" {
		return "", fmt.Errorf("invalid image response format")
	}
	return decoded.Data.URL, nil
}

type ttsRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Synthesize converts text to speech and returns the raw audio stream.
func (c *Client) Synthesize(ctx context.Context, text, model string) ([]byte, error) {
	payload, err := json.Marshal(ttsRequest{Text: text, Model: model})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// The speech endpoint hangs off a doubled version segment; with the
	// default base this resolves to /v2/v2/tts on the hosted API.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS request failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
