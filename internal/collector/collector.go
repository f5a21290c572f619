// Package collector takes profile snapshots: it fetches the SkyBlock profile
// from the Hypixel API, derives skill levels and collection tiers, and
// stores the result as one database snapshot.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/skydash/internal/database"
)

// Config holds what a collection run needs to reach the API.
type Config struct {
	BaseURL    string
	APIKey     string
	ProfileID  string
	PlayerUUID string
	Timeout    time.Duration
}

// Collector runs collections against one profile member.
type Collector struct {
	cfg     Config
	hypixel *Hypixel
	store   database.Store
	tiers   Thresholds
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a collector writing to store. A nil logger discards output.
func New(cfg Config, store database.Store, tiers Thresholds, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tiers == nil {
		tiers = Thresholds{}
	}
	return &Collector{
		cfg:     cfg,
		hypixel: NewHypixel(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
		store:   store,
		tiers:   tiers,
		logger:  logger,
		now:     time.Now,
	}
}

// Validate reports missing settings before any request is made.
func (c *Collector) Validate() error {
	if c.cfg.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.cfg.ProfileID == "" || c.cfg.PlayerUUID == "" {
		return errors.New("hypixel profile_id and player_uuid must be set")
	}
	return nil
}

// Run takes one snapshot and returns its timestamp.
func (c *Collector) Run(ctx context.Context) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	c.logger.Info("fetching profile", zap.String("profile_id", c.cfg.ProfileID))
	body, err := c.hypixel.FetchProfile(ctx, c.cfg.ProfileID)
	if err != nil {
		return 0, err
	}

	ts := c.now().Unix()
	snap, err := ParseProfile(body, c.cfg.PlayerUUID, ts, c.tiers)
	if err != nil {
		return 0, fmt.Errorf("parsing profile: %w", err)
	}

	if err := c.store.InsertSnapshot(snap); err != nil {
		return 0, fmt.Errorf("storing snapshot: %w", err)
	}

	c.logger.Info("snapshot stored",
		zap.Int64("timestamp", ts),
		zap.String("member", snap.MemberUUID),
		zap.Int("skills", len(snap.Skills)),
		zap.Int("slayers", len(snap.Slayers)),
		zap.Int("collections", len(snap.Collections)),
		zap.Int("bestiary", len(snap.Bestiary)),
		zap.Int("bank_transactions", len(snap.BankTransactions)),
	)
	return ts, nil
}
