package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mr-Dark-debug/skydash/internal/database"
	"github.com/Mr-Dark-debug/skydash/internal/series"
)

// fixedNow is noon, so "yesterday" snapshots fall before today's midnight.
var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

func newTestStore(t *testing.T) *database.DBService {
	t.Helper()
	store, err := database.NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func snapshotAt(ts int64, scale int64) *database.Snapshot {
	return &database.Snapshot{
		ProfileID:   "profile-1",
		MemberUUID:  "member-1",
		Timestamp:   ts,
		CuteName:    "Mango",
		Purse:       float64(100 * scale),
		BankBalance: float64(50 * scale),
		Kills:       10 * scale,
		DeathCount:  scale,
		Skills:      []database.SkillEntry{{Name: "mining", XP: float64(300 * scale), Level: 3}},
		Collections: []database.CollectionEntry{{Name: "WHEAT", Amount: 50 * scale, Tier: 1}},
		Bestiary:    []database.BestiaryEntry{{MobID: "zombie_1", Kills: 5 * scale}},
	}
}

// seededServer stores snapshots ten days and one day before fixedNow.
func seededServer(t *testing.T, collector Collector) (*Server, *database.DBService) {
	t.Helper()
	store := newTestStore(t)
	for i, ts := range []int64{fixedNow.AddDate(0, 0, -10).Unix(), fixedNow.AddDate(0, 0, -1).Unix()} {
		if err := store.InsertSnapshot(snapshotAt(ts, int64(i+1))); err != nil {
			t.Fatalf("InsertSnapshot failed: %v", err)
		}
	}
	s := New(DefaultConfig(), store, collector, nil)
	s.now = func() time.Time { return fixedNow }
	return s, store
}

func do(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding response %q failed: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := New(DefaultConfig(), newTestStore(t), nil, nil)
	rec := do(t, s, "GET", "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestLatestSnapshotTimestamp(t *testing.T) {
	s := New(DefaultConfig(), newTestStore(t), nil, nil)
	rec := do(t, s, "GET", "/api/latest_snapshot_timestamp")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"latest_timestamp":null}` {
		t.Errorf("expected null timestamp, got %s", got)
	}

	s, _ = seededServer(t, nil)
	rec = do(t, s, "GET", "/api/latest_snapshot_timestamp")
	var body struct {
		LatestTimestamp *int64 `json:"latest_timestamp"`
	}
	decode(t, rec, &body)
	if body.LatestTimestamp == nil || *body.LatestTimestamp != fixedNow.AddDate(0, 0, -1).Unix() {
		t.Errorf("unexpected latest timestamp %v", body.LatestTimestamp)
	}
}

func TestProfileStats(t *testing.T) {
	s, _ := seededServer(t, nil)
	ts := fixedNow.AddDate(0, 0, -1).Unix()

	rec := do(t, s, "GET", "/api/profile_stats/"+itoa(ts))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var stats database.ProfileStats
	decode(t, rec, &stats)
	if stats.Purse != 200 || stats.BankBalance != 100 || stats.Kills != 20 || stats.DeathCount != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	rec = do(t, s, "GET", "/api/profile_stats/1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing snapshot, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] != "Stats not found" {
		t.Errorf("unexpected error body %v", body)
	}

	if rec := do(t, s, "GET", "/api/profile_stats/abc"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for non-integer timestamp, got %d", rec.Code)
	}
}

func TestHistoryRanges(t *testing.T) {
	s, _ := seededServer(t, nil)

	rec := do(t, s, "GET", "/api/history/skills")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var week series.Collection
	decode(t, rec, &week)
	mining, ok := week.Get("mining")
	if !ok || len(mining.Points) != 1 || mining.Points[0].Value != 600 {
		t.Errorf("default range should hold only the recent point, got %+v", week)
	}

	var all series.Collection
	decode(t, do(t, s, "GET", "/api/history/skills?range=all"), &all)
	if mining, _ := all.Get("mining"); len(mining.Points) != 2 {
		t.Errorf("expected both points for range=all, got %+v", all)
	}

	var profile series.Collection
	decode(t, do(t, s, "GET", "/api/history/profile_stats?range=30d"), &profile)
	if got := profile.Names(); len(got) != 3 || got[0] != "total_money" {
		t.Errorf("unexpected profile history series %v", got)
	}

	rec = do(t, s, "GET", "/api/history/pets")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown category, got %d", rec.Code)
	}
}

func TestDiff(t *testing.T) {
	s, _ := seededServer(t, nil)

	// Both snapshots precede today's midnight, so today has nothing to compare.
	rec := do(t, s, "GET", "/api/diff/collections")
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected empty progress for today, got %s", got)
	}

	var progress []database.ProgressEntry
	decode(t, do(t, s, "GET", "/api/diff/collections?range=7d"), &progress)
	if len(progress) != 1 || progress[0].Name != "WHEAT" || progress[0].Progress != 50 || progress[0].EndValue != 100 {
		t.Errorf("unexpected progress %+v", progress)
	}

	if rec := do(t, s, "GET", "/api/diff/profile_stats"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a category without progress, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	s := New(DefaultConfig(), newTestStore(t), nil, nil)

	rec := do(t, s, "OPTIONS", "/api/trigger_collect")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header on preflight")
	}

	rec = do(t, s, "GET", "/api/latest_snapshot_timestamp")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header on GET")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := New(DefaultConfig(), newTestStore(t), nil, nil)
	if rec := do(t, s, "GET", "/api/trigger_collect"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

type blockingCollector struct {
	release chan struct{}
	calls   int32
	err     error
}

func (c *blockingCollector) Run(ctx context.Context) (int64, error) {
	atomic.AddInt32(&c.calls, 1)
	select {
	case <-c.release:
		if c.err != nil {
			return 0, c.err
		}
		return 42, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestTriggerCollectSingleFlight(t *testing.T) {
	collector := &blockingCollector{release: make(chan struct{})}
	s, _ := seededServer(t, collector)

	rec := do(t, s, "POST", "/api/trigger_collect")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var first map[string]string
	decode(t, rec, &first)
	if first["message"] != "Data collection started." || first["job_id"] == "" {
		t.Fatalf("unexpected trigger body %v", first)
	}

	rec = do(t, s, "POST", "/api/trigger_collect")
	var second map[string]string
	decode(t, rec, &second)
	if rec.Code != http.StatusAccepted || second["job_id"] != first["job_id"] {
		t.Errorf("expected the running job %s, got %d %v", first["job_id"], rec.Code, second)
	}

	close(collector.release)
	s.jobs.wait()

	if n := atomic.LoadInt32(&collector.calls); n != 1 {
		t.Errorf("expected one collector run, got %d", n)
	}
	m := s.Metrics()
	if m.CollectionsStarted != 1 || m.CollectionsSucceeded != 1 || m.LastSnapshot != 42 || m.CollectionRunning {
		t.Errorf("unexpected metrics after collection %+v", m)
	}

	decode(t, do(t, s, "POST", "/api/trigger_collect"), &second)
	if second["job_id"] == first["job_id"] {
		t.Error("expected a new job once the previous one finished")
	}
}

func TestTriggerCollectFailureCounted(t *testing.T) {
	collector := &blockingCollector{release: make(chan struct{}), err: errors.New("boom")}
	close(collector.release)
	s, _ := seededServer(t, collector)

	do(t, s, "POST", "/api/trigger_collect")
	s.jobs.wait()

	if m := s.Metrics(); m.CollectionsFailed != 1 || m.CollectionsSucceeded != 0 {
		t.Errorf("expected one failed collection, got %+v", m)
	}
}

func TestTriggerCollectWithoutCollector(t *testing.T) {
	s := New(DefaultConfig(), newTestStore(t), nil, nil)
	rec := do(t, s, "POST", "/api/trigger_collect")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestMetricsEndpoints(t *testing.T) {
	s := New(DefaultConfig(), newTestStore(t), nil, nil)
	do(t, s, "GET", "/health")
	do(t, s, "GET", "/api/nope")

	rec := do(t, s, "GET", "/metrics")
	text := rec.Body.String()
	for _, want := range []string{"skydash_requests_total 3", "skydash_errors_total 1", "skydash_uptime_seconds"} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q:\n%s", want, text)
		}
	}

	var m Metrics
	decode(t, do(t, s, "GET", "/api/metrics"), &m)
	if m.Requests != 4 {
		t.Errorf("expected 4 requests, got %d", m.Requests)
	}
}

func TestBankTransactionsAndSummary(t *testing.T) {
	store := newTestStore(t)
	snap := snapshotAt(fixedNow.Unix()-3600, 1)
	snap.BankTransactions = []database.BankTransaction{
		{Timestamp: (fixedNow.Unix() - 7200) * 1000, Action: "DEPOSIT", Amount: 10, InitiatorName: "Steve"},
	}
	if err := store.InsertSnapshot(snap); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
	s := New(DefaultConfig(), store, nil, nil)
	s.now = func() time.Time { return fixedNow }

	var sum database.Summary
	decode(t, do(t, s, "GET", "/api/summary"), &sum)
	if sum.Snapshots != 1 || sum.BankTransactions != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}

	rec := do(t, s, "GET", "/api/bank_transactions?range=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var txs []database.BankTransaction
	decode(t, rec, &txs)
	if len(txs) != 1 || txs[0].Action != "DEPOSIT" {
		t.Errorf("unexpected transactions %+v", txs)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	s := New(DefaultConfig(), newTestStore(t), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
