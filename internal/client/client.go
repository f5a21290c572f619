// Package client talks to the skydash backend HTTP API. Every call takes a
// context so the dashboard can abandon requests that a newer one replaced.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/skydash/internal/series"
)

// Categories served by the history and diff endpoints.
const (
	CategorySkills       = "skills"
	CategoryCollections  = "collections"
	CategoryBestiary     = "bestiary"
	CategoryProfileStats = "profile_stats"
	CategorySlayers      = "slayers"
)

// Config holds API configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a backend API client.
type Client struct {
	config Config
	http   *http.Client
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string { return c.config.BaseURL }

// ProfileStats is the headline stats row of one snapshot.
type ProfileStats struct {
	Purse       float64 `json:"purse"`
	BankBalance float64 `json:"bank_balance"`
	Kills       float64 `json:"kills"`
	DeathCount  float64 `json:"death_count"`
}

// TotalMoney is purse plus bank balance.
func (s ProfileStats) TotalMoney() float64 { return s.Purse + s.BankBalance }

// ProgressItem is one row of a diff table.
type ProgressItem struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	EndValue float64 `json:"end_value"`
}

// CollectAck is the response to a collection trigger.
type CollectAck struct {
	Message string `json:"message"`
	JobID   string `json:"job_id,omitempty"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api status %d", e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// LatestSnapshotTimestamp returns the newest snapshot time, or nil when the
// database holds no snapshots yet.
func (c *Client) LatestSnapshotTimestamp(ctx context.Context) (*int64, error) {
	var out struct {
		LatestTimestamp *int64 `json:"latest_timestamp"`
	}
	if err := c.get(ctx, "/api/latest_snapshot_timestamp", nil, &out); err != nil {
		return nil, fmt.Errorf("fetching latest snapshot timestamp: %w", err)
	}
	return out.LatestTimestamp, nil
}

// ProfileStats returns the stats recorded at snapshot ts.
func (c *Client) ProfileStats(ctx context.Context, ts int64) (*ProfileStats, error) {
	var out ProfileStats
	path := "/api/profile_stats/" + strconv.FormatInt(ts, 10)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetching profile stats for %d: %w", ts, err)
	}
	return &out, nil
}

// Diff returns the progress table of category over rng. An empty rng lets
// the backend pick its default.
func (c *Client) Diff(ctx context.Context, category, rng string) ([]ProgressItem, error) {
	var out []ProgressItem
	if err := c.get(ctx, "/api/diff/"+url.PathEscape(category), rangeQuery(rng), &out); err != nil {
		return nil, fmt.Errorf("fetching %s diff: %w", category, err)
	}
	if out == nil {
		out = []ProgressItem{}
	}
	return out, nil
}

// History returns the series map of category over rng.
func (c *Client) History(ctx context.Context, category, rng string) (series.Collection, error) {
	var out series.Collection
	if err := c.get(ctx, "/api/history/"+url.PathEscape(category), rangeQuery(rng), &out); err != nil {
		return nil, fmt.Errorf("fetching %s history: %w", category, err)
	}
	if out == nil {
		out = series.Collection{}
	}
	return out, nil
}

// TriggerCollect asks the backend to start a collection run.
func (c *Client) TriggerCollect(ctx context.Context) (*CollectAck, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/trigger_collect", nil)
	if err != nil {
		return nil, err
	}
	var out CollectAck
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("triggering collection: %w", err)
	}
	return &out, nil
}

// Metrics returns the backend's JSON metrics document.
func (c *Client) Metrics(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := c.get(ctx, "/api/metrics", nil, &out); err != nil {
		return nil, fmt.Errorf("fetching metrics: %w", err)
	}
	return out, nil
}

func rangeQuery(rng string) url.Values {
	if rng == "" {
		return nil
	}
	return url.Values{"range": {rng}}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values) (*http.Request, error) {
	u := strings.TrimRight(c.config.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return &StatusError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
