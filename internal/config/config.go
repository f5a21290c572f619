// Package config loads skydash settings. Defaults come from DefaultConfig,
// an optional YAML file is layered on top, then a .env file and the process
// environment, and finally command-line flags set by each binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey  = "HYPIXEL_API_KEY"
	EnvAPIURL  = "SKYDASH_API_URL"
	EnvDBPath  = "SKYDASH_DB"
	EnvProfile = "SKYDASH_PROFILE_ID"
	EnvPlayer  = "SKYDASH_PLAYER_UUID"
)

// Config holds every setting shared by the skydash binaries.
type Config struct {
	API struct {
		// BaseURL is where the dashboard and CLI reach the backend.
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Hypixel struct {
		BaseURL         string `yaml:"base_url"`
		APIKey          string `yaml:"api_key"`
		ProfileID       string `yaml:"profile_id"`
		PlayerUUID      string `yaml:"player_uuid"`
		CollectionsFile string `yaml:"collections_file"`
	} `yaml:"hypixel"`

	Collect struct {
		// Interval between scheduled collections. Zero disables the schedule.
		Interval time.Duration `yaml:"interval"`
	} `yaml:"collect"`

	Dashboard struct {
		TopN            int           `yaml:"top_n"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
		ReloadDelay     time.Duration `yaml:"reload_delay"`
	} `yaml:"dashboard"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Dir returns the per-user skydash directory (~/.skydash).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skydash"
	}
	return filepath.Join(home, ".skydash")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns sensible defaults for a single local install.
func DefaultConfig() Config {
	var cfg Config
	cfg.API.BaseURL = "http://127.0.0.1:5000"
	cfg.API.Timeout = 15 * time.Second
	cfg.Server.Addr = "127.0.0.1:5000"
	cfg.Database.Path = filepath.Join(Dir(), "skyblock_stats.db")
	cfg.Hypixel.BaseURL = "https://api.hypixel.net"
	cfg.Hypixel.CollectionsFile = filepath.Join(Dir(), "collections.json")
	cfg.Dashboard.TopN = 5
	cfg.Dashboard.RefreshInterval = time.Minute
	cfg.Dashboard.ReloadDelay = 5 * time.Second
	cfg.Logging.Level = "info"
	return cfg
}

// Load returns DefaultConfig overlaid with the YAML file at path. An empty
// path means DefaultPath, and a missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv loads a .env file from the working directory when present and
// copies recognised environment variables over cfg.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Hypixel.APIKey = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvProfile); v != "" {
		c.Hypixel.ProfileID = v
	}
	if v := os.Getenv(EnvPlayer); v != "" {
		c.Hypixel.PlayerUUID = v
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	if c.Collect.Interval < 0 {
		return errors.New("collect.interval must not be negative")
	}
	if c.Dashboard.RefreshInterval < 0 || c.Dashboard.ReloadDelay < 0 {
		return errors.New("dashboard intervals must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
