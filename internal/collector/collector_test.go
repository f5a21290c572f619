package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mr-Dark-debug/skydash/internal/database"
)

const sampleProfile = `{
  "success": true,
  "profile": {
    "profile_id": "46cd9591563245f6",
    "cute_name": "Mango",
    "banking": {
      "balance": 2500.5,
      "transactions": [
        {"timestamp": 1700000000000, "action": "DEPOSIT", "amount": 100, "initiator_name": "Steve"},
        {"timestamp": 1700000500000, "action": "WITHDRAW", "amount": 40, "initiator_name": "Steve"}
      ]
    },
    "members": {
      "ffffffffffffffffffffffffffffffff": {"player_data": {"death_count": 99}},
      "46cd959156324f668005c96d432ddb56": {
        "player_data": {
          "death_count": 12,
          "experience": {"SKILL_MINING": 200, "SKILL_RUNECRAFTING": 460, "SKILL_FARMING": 10}
        },
        "player_stats": {"kills": {"zombie": 30, "spider": 12.0}},
        "currencies": {"coin_purse": 1200.25},
        "slayer": {"slayer_bosses": {
          "zombie": {"xp": 1500, "boss_kills_tier_0": 5, "boss_kills_tier_2": 1},
          "wolf": {"claimed_levels": {}}
        }},
        "collection": {"wheat": 120, "LOG": 5},
        "bestiary": {"kills": {"zombie_1": 30, "spider_1": 12, "last_killed_mob": "spider_1"}}
      }
    }
  }
}`

func TestSkillLevel(t *testing.T) {
	cases := []struct {
		skill string
		xp    float64
		want  int
	}{
		{"mining", 0, 0},
		{"mining", 49, 0},
		{"mining", 50, 1},
		{"mining", 200, 2},
		{"mining", 111672425, 60},
		{"mining", 500000000, 60},
		{"runecrafting", 460, 3},
		{"runecrafting", 446900, 25},
		{"social", 175, 2},
	}
	for _, c := range cases {
		if got := SkillLevel(c.skill, c.xp); got != c.want {
			t.Errorf("SkillLevel(%s, %v) = %d, want %d", c.skill, c.xp, got, c.want)
		}
	}
}

func TestThresholdsTier(t *testing.T) {
	tiers := Thresholds{"WHEAT": {50, 100, 250}}
	if got := tiers.Tier("wheat", 120); got != 2 {
		t.Errorf("expected tier 2, got %d", got)
	}
	if got := tiers.Tier("WHEAT", 1000); got != 3 {
		t.Errorf("expected max tier 3, got %d", got)
	}
	if got := tiers.Tier("LOG", 1000); got != 0 {
		t.Errorf("expected tier 0 for unknown collection, got %d", got)
	}
}

func TestLoadThresholds(t *testing.T) {
	dir := t.TempDir()

	tiers, found, err := LoadThresholds(filepath.Join(dir, "missing.json"))
	if err != nil || found || len(tiers) != 0 {
		t.Fatalf("expected empty table for missing file, got %v %v %v", tiers, found, err)
	}

	path := filepath.Join(dir, "collections.json")
	if err := os.WriteFile(path, []byte(`{"wheat": [50, 100]}`), 0o644); err != nil {
		t.Fatalf("writing thresholds failed: %v", err)
	}
	tiers, found, err = LoadThresholds(path)
	if err != nil || !found {
		t.Fatalf("LoadThresholds failed: %v", err)
	}
	if got := tiers.Tier("WHEAT", 75); got != 1 {
		t.Errorf("expected tier 1, got %d", got)
	}

	if err := os.WriteFile(path, []byte(`[1,2]`), 0o644); err != nil {
		t.Fatalf("writing thresholds failed: %v", err)
	}
	if _, _, err := LoadThresholds(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseProfile(t *testing.T) {
	tiers := Thresholds{"WHEAT": {50, 100, 250}}
	snap, err := ParseProfile([]byte(sampleProfile), "46cd9591-5632-4f66-8005-c96d432ddb56", 1234, tiers)
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}

	if snap.MemberUUID != "46cd959156324f668005c96d432ddb56" || snap.Timestamp != 1234 {
		t.Errorf("unexpected member/timestamp %s/%d", snap.MemberUUID, snap.Timestamp)
	}
	if snap.CuteName != "Mango" || snap.BankBalance != 2500.5 || snap.Purse != 1200.25 {
		t.Errorf("unexpected profile fields %+v", snap)
	}
	if snap.DeathCount != 12 || snap.Kills != 42 {
		t.Errorf("expected 12 deaths and 42 kills, got %d and %d", snap.DeathCount, snap.Kills)
	}
	if len(snap.BankTransactions) != 2 || snap.BankTransactions[1].Action != "WITHDRAW" {
		t.Errorf("unexpected bank transactions %v", snap.BankTransactions)
	}

	skills := map[string]database.SkillEntry{}
	for _, s := range snap.Skills {
		skills[s.Name] = s
	}
	if skills["mining"].Level != 2 || skills["runecrafting"].Level != 3 || skills["farming"].Level != 0 {
		t.Errorf("unexpected skill levels %v", snap.Skills)
	}

	if len(snap.Slayers) != 1 {
		t.Fatalf("expected only slayers with xp, got %v", snap.Slayers)
	}
	if sl := snap.Slayers[0]; sl.Name != "zombie" || sl.XP != 1500 || sl.TierKills != [5]int64{5, 0, 1, 0, 0} {
		t.Errorf("unexpected slayer %+v", sl)
	}

	if len(snap.Collections) != 2 {
		t.Fatalf("expected 2 collections, got %v", snap.Collections)
	}
	if c := snap.Collections[0]; c.Name != "WHEAT" || c.Amount != 120 || c.Tier != 2 {
		t.Errorf("unexpected collection %+v", c)
	}

	if len(snap.Bestiary) != 2 {
		t.Errorf("expected non-numeric bestiary entries to be skipped, got %v", snap.Bestiary)
	}
}

func TestParseProfileFailures(t *testing.T) {
	if _, err := ParseProfile([]byte(`{"success": false, "cause": "Invalid API key"}`), "x", 1, nil); !errors.Is(err, ErrAPIUnsuccessful) {
		t.Errorf("expected ErrAPIUnsuccessful, got %v", err)
	}
	if _, err := ParseProfile([]byte(sampleProfile), "0000", 1, nil); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}
	if _, err := ParseProfile([]byte(`{`), "x", 1, nil); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCollectorRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/skyblock/profile" || r.URL.Query().Get("profile") != "p-1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("API-Key") != "key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(sampleProfile))
	}))
	defer srv.Close()

	store, err := database.NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	defer store.Close()

	c := New(Config{
		BaseURL:    srv.URL,
		APIKey:     "key",
		ProfileID:  "p-1",
		PlayerUUID: "46cd959156324f668005c96d432ddb56",
	}, store, nil, nil)
	c.now = func() time.Time { return time.Unix(5000, 0) }

	ts, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ts != 5000 {
		t.Errorf("expected timestamp 5000, got %d", ts)
	}

	stats, err := store.ProfileStats(5000)
	if err != nil {
		t.Fatalf("ProfileStats failed: %v", err)
	}
	if stats.Kills != 42 || stats.DeathCount != 12 {
		t.Errorf("unexpected stored stats %+v", stats)
	}
}

func TestCollectorRunRequiresKey(t *testing.T) {
	c := New(Config{ProfileID: "p", PlayerUUID: "u"}, nil, nil, nil)
	if _, err := c.Run(context.Background()); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestCollectorRunForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"cause":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "bad", ProfileID: "p", PlayerUUID: "u"}, nil, nil, nil)
	if _, err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error for forbidden response")
	}
}
