package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
}

func TestLatestSnapshotTimestamp(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/latest_snapshot_timestamp" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"latest_timestamp": 1700000000}`))
	})

	ts, err := c.LatestSnapshotTimestamp(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshotTimestamp failed: %v", err)
	}
	if ts == nil || *ts != 1700000000 {
		t.Errorf("unexpected timestamp %v", ts)
	}
}

func TestLatestSnapshotTimestampNull(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latest_timestamp": null}`))
	})

	ts, err := c.LatestSnapshotTimestamp(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshotTimestamp failed: %v", err)
	}
	if ts != nil {
		t.Errorf("expected nil timestamp, got %d", *ts)
	}
}

func TestProfileStats(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile_stats/42" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Stats not found"}`))
			return
		}
		w.Write([]byte(`{"purse": 1000.5, "bank_balance": 234.25, "kills": 12, "death_count": 3}`))
	})

	stats, err := c.ProfileStats(context.Background(), 42)
	if err != nil {
		t.Fatalf("ProfileStats failed: %v", err)
	}
	if stats.TotalMoney() != 1234.75 || stats.Kills != 12 || stats.DeathCount != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}

	_, err = c.ProfileStats(context.Background(), 7)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "Stats not found" {
		t.Errorf("expected backend message, got %v", err)
	}
}

func TestDiffSendsRange(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/diff/collections" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("range"); got != "7d" {
			t.Errorf("expected range=7d, got %q", got)
		}
		w.Write([]byte(`[{"name":"WHEAT","progress":120,"end_value":5000}]`))
	})

	items, err := c.Diff(context.Background(), CategoryCollections, "7d")
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	want := []ProgressItem{{Name: "WHEAT", Progress: 120, EndValue: 5000}}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("expected %v, got %v", want, items)
	}
}

func TestHistoryKeepsOrder(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query for default range, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"mining":[{"timestamp":1,"value":10}],"farming":[{"timestamp":1,"value":5}]}`))
	})

	c2, err := c.History(context.Background(), CategorySkills, "")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if !reflect.DeepEqual(c2.Names(), []string{"mining", "farming"}) {
		t.Errorf("unexpected names %v", c2.Names())
	}
}

func TestHistoryMalformed(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mining": "oops"}`))
	})
	if _, err := c.History(context.Background(), CategorySkills, "7d"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTriggerCollect(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(CollectAck{Message: "Data collection started.", JobID: "abc"})
	})

	ack, err := c.TriggerCollect(context.Background())
	if err != nil {
		t.Fatalf("TriggerCollect failed: %v", err)
	}
	if ack.Message != "Data collection started." || ack.JobID != "abc" {
		t.Errorf("unexpected ack %+v", ack)
	}
}

func TestTriggerCollectFailure(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"collector unavailable"}`))
	})

	_, err := c.TriggerCollect(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	block := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Diff(ctx, CategoryBestiary, "today"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
