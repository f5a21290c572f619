// skydash CLI: queries the backend, runs collections and exports charts.
//
// Usage:
//
//	skydash [--config file] [--api url] <command> [flags]
//
// Commands:
//
//	latest    Show the newest snapshot and its profile stats
//	history   Print daily history rows of a category
//	diff      Print the progress table of a category
//	trends    Growth rate per series, with unusual gains
//	collect   Trigger a collection (or run one locally)
//	export    Write a chart or workbook of a category
//	status    Show backend status and metrics
//	version   Print version information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/internal/config"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Global flags.
var (
	configPath string
	apiURL     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "skydash",
		Short: "SkyBlock progress tracker",
		Long: `skydash reads profile snapshots from the skydash backend, prints
progress and history, and exports charts.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.skydash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Backend base URL (overrides config)")

	rootCmd.AddCommand(
		latestCmd(),
		historyCmd(),
		diffCmd(),
		trendsCmd(),
		collectCmd(),
		exportCmd(),
		statusCmd(),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers the config file, .env, environment and --api.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newClient() (*client.Client, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	return client.New(client.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}), cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("skydash v%s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)
		},
	}
}
