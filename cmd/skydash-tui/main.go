// skydash TUI: the terminal dashboard for SkyBlock progress.
//
// Usage:
//
//	skydash-tui [flags]
//
// Flags:
//
//	--config  Config file (default: ~/.skydash/config.yaml)
//	--api     Backend base URL (default: http://127.0.0.1:5000)
//	--log     Log file (default: ~/.skydash/tui.log)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/internal/config"
	"github.com/Mr-Dark-debug/skydash/internal/logging"
	"github.com/Mr-Dark-debug/skydash/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Config file")
	apiURL := flag.String("api", "", "Backend base URL")
	logFile := flag.String("log", "", "Log file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// The terminal belongs to the UI, so logs always go to a file.
	path := *logFile
	if path == "" {
		path = cfg.Logging.File
	}
	if path == "" {
		path = filepath.Join(config.Dir(), "tui.log")
	}
	logger, err := logging.New(cfg.Logging.Level, path)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	api := client.New(client.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
	model := tui.NewModel(api, tui.Options{
		TopN:            cfg.Dashboard.TopN,
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		ReloadDelay:     cfg.Dashboard.ReloadDelay,
		Logger:          logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
