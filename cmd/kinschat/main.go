package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"kinschat/internal/broadcast"
	"kinschat/internal/chat"
	"kinschat/internal/config"
	"kinschat/internal/dispatcher"
	"kinschat/internal/kinos"
	"kinschat/internal/models"
	"kinschat/internal/sidechannel"
	"kinschat/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLogs := config.SetupLogger(cfg.LogFile, slog.LevelInfo)
	defer closeLogs()

	registry := models.NewRegistry(cfg)
	store := chat.NewStore()
	store.Initialize(registry.All())

	client := kinos.NewClient(cfg)
	disp := dispatcher.New(store, registry, client, cfg, logger)
	forwarder := sidechannel.New(client, logger)
	coordinator := broadcast.New(store, registry, disp, forwarder)

	exportDir := filepath.Dir(config.ConfigPath())

	app := ui.New(cfg, registry, store, disp, coordinator, client, exportDir, logger)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Let in-flight context mirrors finish before the process exits.
	forwarder.Wait()
}
