// skydash server: stores SkyBlock profile snapshots and serves them over
// HTTP to the dashboard and CLI.
//
// Usage:
//
//	skydash-server [flags]
//
// Flags:
//
//	--config    Config file (default: ~/.skydash/config.yaml)
//	--listen    HTTP listen address (default: 127.0.0.1:5000)
//	--db        Path to SQLite database file (default: ~/.skydash/skyblock_stats.db)
//	--interval  Scheduled collection interval, 0 disables (default: 0)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/skydash/internal/collector"
	"github.com/Mr-Dark-debug/skydash/internal/config"
	"github.com/Mr-Dark-debug/skydash/internal/database"
	"github.com/Mr-Dark-debug/skydash/internal/logging"
	"github.com/Mr-Dark-debug/skydash/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Config file")
	listen := flag.String("listen", "", "HTTP listen address")
	dbPath := flag.String("db", "", "Path to SQLite database file")
	interval := flag.Duration("interval", -1, "Scheduled collection interval (0 disables)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	if *listen != "" {
		cfg.Server.Addr = *listen
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *interval >= 0 {
		cfg.Collect.Interval = *interval
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Ensure the database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Fatal("failed to create database directory", zap.String("dir", dbDir), zap.Error(err))
	}

	store, err := database.NewDBService(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	tiers, found, err := collector.LoadThresholds(cfg.Hypixel.CollectionsFile)
	if err != nil {
		logger.Fatal("failed to load collection thresholds", zap.Error(err))
	}
	if !found {
		logger.Warn("collection thresholds file not found, tiers will be 0",
			zap.String("path", cfg.Hypixel.CollectionsFile))
	}

	coll := collector.New(collector.Config{
		BaseURL:    cfg.Hypixel.BaseURL,
		APIKey:     cfg.Hypixel.APIKey,
		ProfileID:  cfg.Hypixel.ProfileID,
		PlayerUUID: cfg.Hypixel.PlayerUUID,
		Timeout:    cfg.API.Timeout,
	}, store, tiers, logger.Named("collector"))
	if err := coll.Validate(); err != nil {
		logger.Warn("collector is not fully configured, collections will fail", zap.Error(err))
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Addr = cfg.Server.Addr
	srvCfg.CollectInterval = cfg.Collect.Interval
	srv := server.New(srvCfg, store, coll, logger.Named("server"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Print startup banner
	fmt.Println()
	fmt.Println("  SKYDASH SERVER")
	fmt.Println()
	fmt.Printf("  Listen:   http://%s/api\n", srvCfg.Addr)
	fmt.Printf("  DB:       %s\n", cfg.Database.Path)
	if srvCfg.CollectInterval > 0 {
		fmt.Printf("  Collect:  every %s\n", srvCfg.CollectInterval)
	} else {
		fmt.Println("  Collect:  on demand")
	}
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop.")
	fmt.Println()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println("\n  Done.")
}
