package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

type fakeAPI struct {
	latest     *int64
	latestErr  error
	stats      *client.ProfileStats
	progress   map[string][]client.ProgressItem // keyed by range
	diffErr    error
	history    series.Collection
	historyErr error
	collectErr error
}

func (f *fakeAPI) LatestSnapshotTimestamp(ctx context.Context) (*int64, error) {
	return f.latest, f.latestErr
}

func (f *fakeAPI) ProfileStats(ctx context.Context, ts int64) (*client.ProfileStats, error) {
	if f.stats == nil {
		return nil, &client.StatusError{StatusCode: 404, Message: "Stats not found"}
	}
	return f.stats, nil
}

func (f *fakeAPI) Diff(ctx context.Context, category, rng string) ([]client.ProgressItem, error) {
	if f.diffErr != nil {
		return nil, f.diffErr
	}
	return f.progress[rng], nil
}

func (f *fakeAPI) History(ctx context.Context, category, rng string) (series.Collection, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeAPI) TriggerCollect(ctx context.Context) (*client.CollectAck, error) {
	if f.collectErr != nil {
		return nil, f.collectErr
	}
	return &client.CollectAck{Message: "Data collection started.", JobID: "job-1"}, nil
}

func int64Ptr(v int64) *int64 { return &v }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sevenSeries() series.Collection {
	var c series.Collection
	for i := 1; i <= 7; i++ {
		c = append(c, series.Series{
			Name: fmt.Sprintf("skill_%d", i),
			Points: []series.Point{
				{Timestamp: 1700000000, Value: float64(i)},
				{Timestamp: 1700086400, Value: float64(i * 10)},
			},
		})
	}
	return c
}

func TestStatsLoad(t *testing.T) {
	api := &fakeAPI{
		latest: int64Ptr(1700000000),
		stats:  &client.ProfileStats{Purse: 1000.4, BankBalance: 234.2, Kills: 5, DeathCount: 2},
	}
	m := NewModel(api, Options{})
	if m.info != infoLoading {
		t.Fatalf("expected %q before loading, got %q", infoLoading, m.info)
	}

	m, _ = update(t, m, m.loadStats()())
	want := "Latest data: " + timeutil.FormatTimestampFull(1700000000)
	if m.info != want {
		t.Errorf("info = %q, want %q", m.info, want)
	}
	money, kills, deaths := m.stats.statValues()
	if money != "1,235" || kills != "5" || deaths != "2" {
		t.Errorf("unexpected stat values %s %s %s", money, kills, deaths)
	}
}

func TestStatsNoData(t *testing.T) {
	m := NewModel(&fakeAPI{}, Options{})
	m, _ = update(t, m, m.loadStats()())
	if m.info != infoNoData {
		t.Errorf("info = %q, want %q", m.info, infoNoData)
	}
	if money, _, _ := m.stats.statValues(); money != "..." {
		t.Errorf("expected placeholder money, got %q", money)
	}
}

func TestStatsBackendDown(t *testing.T) {
	api := &fakeAPI{latestErr: errors.New("connection refused")}
	m := NewModel(api, Options{})
	m, _ = update(t, m, m.loadStats()())
	if m.info != infoBackendDown {
		t.Errorf("info = %q, want %q", m.info, infoBackendDown)
	}

	// Once loaded, a failing refresh keeps the last good state.
	api.latestErr = nil
	api.latest = int64Ptr(1700000000)
	api.stats = &client.ProfileStats{Kills: 9}
	m, _ = update(t, m, m.loadStats()())
	api.latestErr = errors.New("timeout")
	m, _ = update(t, m, m.loadStats()())
	if !strings.HasPrefix(m.info, "Latest data: ") {
		t.Errorf("expected info to survive a failed refresh, got %q", m.info)
	}
	if _, kills, _ := m.stats.statValues(); kills != "9" {
		t.Errorf("expected kills to survive a failed refresh, got %q", kills)
	}
}

func TestStaleProgressResponseDropped(t *testing.T) {
	api := &fakeAPI{progress: map[string][]client.ProgressItem{
		timeutil.RangeToday: {{Name: "WHEAT", Progress: 1, EndValue: 10}},
		timeutil.Range7d:    {{Name: "CARROT_ITEM", Progress: 7, EndValue: 70}},
	}}
	m := NewModel(api, Options{})

	first := m.loadProgress(0)
	m.tables[0].rng = timeutil.Range7d
	second := m.loadProgress(0)

	m, _ = update(t, m, second())
	m, _ = update(t, m, first())

	items := m.tables[0].items
	if len(items) != 1 || items[0].Name != "CARROT_ITEM" {
		t.Errorf("stale response overwrote the table: %+v", items)
	}
	if m.tables[0].loading {
		t.Error("expected loading to be cleared")
	}
}

func TestProgressEmptyState(t *testing.T) {
	m := NewModel(&fakeAPI{}, Options{})
	m, _ = update(t, m, m.loadProgress(0)())
	if got := renderProgressBody(&m.tables[0], 60, 10); !strings.Contains(got, "No progress in this period.") {
		t.Errorf("expected empty message, got %q", got)
	}
}

func TestChartSeedsSelectionOnce(t *testing.T) {
	api := &fakeAPI{history: sevenSeries()}
	m := NewModel(api, Options{})

	m, _ = update(t, m, m.loadHistory(0)())
	c := &m.charts[0]
	names := c.selection.Names()
	want := []string{"skill_7", "skill_6", "skill_5", "skill_4", "skill_3"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("seeded selection = %v, want %v", names, want)
	}
	if tr := c.trends["skill_7"]; tr.PerDay != 63 {
		t.Errorf("expected skill_7 to grow 63/day, got %v", tr.PerDay)
	}

	for _, n := range names {
		c.selection.Toggle(n)
	}
	m, _ = update(t, m, m.loadHistory(0)())
	if n := m.charts[0].selection.Len(); n != 0 {
		t.Errorf("emptied selection was re-seeded with %d series", n)
	}
}

func TestChartKeys(t *testing.T) {
	api := &fakeAPI{history: sevenSeries()}
	m := NewModel(api, Options{})
	m, _ = update(t, m, m.loadHistory(0)())

	// Two tables come before the first chart.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if i, ok := m.focusedChart(); !ok || i != 0 {
		t.Fatalf("expected first chart focused, got %d %v", i, ok)
	}

	// skill_1 is not in the default selection.
	m, _ = update(t, m, keyRunes(" "))
	if !m.charts[0].selection.Contains("skill_1") {
		t.Error("expected space to select the series under the cursor")
	}

	m, _ = update(t, m, keyRunes("l"))
	if m.charts[0].cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.charts[0].cursor)
	}

	m, cmd := update(t, m, keyRunes("r"))
	if m.charts[0].rng != timeutil.Range30d || cmd == nil {
		t.Errorf("expected range 30d and a fetch, got %s", m.charts[0].rng)
	}
	if !m.charts[0].loading {
		t.Error("expected chart to be loading after a range change")
	}
}

func TestProgressRangeCycle(t *testing.T) {
	m := NewModel(&fakeAPI{}, Options{})
	if m.tables[0].rng != timeutil.RangeToday {
		t.Fatalf("default range = %s", m.tables[0].rng)
	}
	m, cmd := update(t, m, keyRunes("r"))
	if m.tables[0].rng != timeutil.Range7d || cmd == nil {
		t.Errorf("expected 7d and a fetch, got %s", m.tables[0].rng)
	}
	m, _ = update(t, m, keyRunes("R"))
	m, _ = update(t, m, keyRunes("R"))
	if m.tables[0].rng != timeutil.Range30d {
		t.Errorf("expected wrap to 30d, got %s", m.tables[0].rng)
	}
	if m.tables[1].rng != timeutil.RangeToday {
		t.Error("unfocused table range changed")
	}
}

func TestCollectFlow(t *testing.T) {
	api := &fakeAPI{}
	m := NewModel(api, Options{})

	m, cmd := update(t, m, keyRunes("c"))
	if !m.collecting || m.collectStatus != collectPending || cmd == nil {
		t.Fatalf("unexpected state after collect: %v %q", m.collecting, m.collectStatus)
	}
	if _, again := update(t, m, keyRunes("c")); again != nil {
		t.Error("expected collect to be disabled while cooling down")
	}

	m, reload := update(t, m, m.triggerCollect()())
	if m.collectStatus != "Collection process started! Refreshing in 5s..." {
		t.Errorf("unexpected status %q", m.collectStatus)
	}
	if reload == nil {
		t.Error("expected a scheduled reload")
	}

	m, _ = update(t, m, reloadMsg{})
	if m.collectStatus != "" {
		t.Errorf("expected the reload to clear the status, got %q", m.collectStatus)
	}
	m.width = 120
	if strings.Contains(renderHeader(&m), "Refreshing") {
		t.Error("header still announces a pending refresh")
	}

	m, _ = update(t, m, collectDoneMsg{err: fmt.Errorf("trigger: %w", &client.StatusError{StatusCode: 500})})
	if m.collectStatus != collectFailed {
		t.Errorf("status = %q, want %q", m.collectStatus, collectFailed)
	}
	m, _ = update(t, m, collectDoneMsg{err: errors.New("dial tcp: connection refused")})
	if m.collectStatus != collectErrored {
		t.Errorf("status = %q, want %q", m.collectStatus, collectErrored)
	}

	m, _ = update(t, m, collectCooldownMsg{})
	if m.collecting {
		t.Error("expected cooldown to re-enable collect")
	}
}

func TestCycle(t *testing.T) {
	if got := cycle(chartRanges, timeutil.RangeAll, 1); got != timeutil.Range7d {
		t.Errorf("cycle forward wrap = %s", got)
	}
	if got := cycle(chartRanges, timeutil.Range7d, -1); got != timeutil.RangeAll {
		t.Errorf("cycle backward wrap = %s", got)
	}
	if got := cycle(progressRanges, "bogus", 1); got != timeutil.Range7d {
		t.Errorf("unknown range should start from the first, got %s", got)
	}
}

func TestChipWindow(t *testing.T) {
	widths := []int{5, 5, 5, 5, 5}
	if s, e := chipWindow(widths, 4, 12); s != 3 || e != 5 {
		t.Errorf("chipWindow at end = [%d,%d)", s, e)
	}
	if s, e := chipWindow(widths, 0, 100); s != 0 || e != 5 {
		t.Errorf("chipWindow all = [%d,%d)", s, e)
	}
	if s, e := chipWindow(widths, 2, 3); s != 2 || e != 3 {
		t.Errorf("chipWindow narrow = [%d,%d)", s, e)
	}
}

func TestYBounds(t *testing.T) {
	lo, hi := yBounds(series.Collection{{Name: "a", Points: []series.Point{{Value: 100}, {Value: 200}}}})
	if lo != 0 || hi != 210 {
		t.Errorf("yBounds = %v, %v", lo, hi)
	}
	lo, hi = yBounds(series.Collection{{Name: "a", Points: []series.Point{{Value: 0}}}})
	if lo != 0 || hi != 1 {
		t.Errorf("flat yBounds = %v, %v", lo, hi)
	}
}

func TestViewLayouts(t *testing.T) {
	api := &fakeAPI{
		latest: int64Ptr(1700000000),
		stats:  &client.ProfileStats{Purse: 1234},
	}
	m := NewModel(api, Options{Location: time.UTC})
	m, _ = update(t, m, m.loadStats()())
	m, _ = update(t, m, m.loadProgress(0)())

	wide, _ := update(t, m, tea.WindowSizeMsg{Width: 140, Height: 45})
	out := wide.View()
	for _, want := range []string{"SKYDASH", "Total Money", "1,234", "Collection Progress", "Bestiary Progress", "Skill XP Progression", "No progress in this period."} {
		if !strings.Contains(out, want) {
			t.Errorf("wide view missing %q", want)
		}
	}

	narrow, _ := update(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})
	out = narrow.View()
	if !strings.Contains(out, "Collection Progress") || strings.Contains(out, "Bestiary Progress") {
		t.Error("narrow view should show only the focused panel")
	}
}

func TestProgressFailureKeepsData(t *testing.T) {
	api := &fakeAPI{diffErr: errors.New("connection refused")}
	m := NewModel(api, Options{})

	m, _ = update(t, m, m.loadProgress(0)())
	if got := renderProgressBody(&m.tables[0], 60, 10); !strings.Contains(got, "Could not load progress.") {
		t.Errorf("expected first-load placeholder, got %q", got)
	}

	api.diffErr = nil
	api.progress = map[string][]client.ProgressItem{
		timeutil.RangeToday: {{Name: "WHEAT", Progress: 10, EndValue: 100}},
	}
	m, _ = update(t, m, m.loadProgress(0)())

	api.diffErr = errors.New("timeout")
	m, _ = update(t, m, m.loadProgress(0)())
	p := m.tables[0]
	if p.loading || p.failed || len(p.items) != 1 || p.items[0].Name != "WHEAT" {
		t.Errorf("expected last good rows after a failed refresh, got %+v", p)
	}
	if got := renderProgressBody(&p, 60, 10); !strings.Contains(got, "WHEAT") {
		t.Errorf("expected WHEAT row, got %q", got)
	}
}

func TestChartFailureKeepsData(t *testing.T) {
	api := &fakeAPI{historyErr: errors.New("connection refused")}
	m := NewModel(api, Options{Location: time.UTC})
	m.width, m.height = 120, 40

	m, _ = update(t, m, m.loadHistory(0)())
	if got := renderChartPanel(&m, 0, 80, 20); !strings.Contains(got, "Could not load history.") {
		t.Errorf("expected first-load placeholder, got %q", got)
	}

	api.historyErr = nil
	api.history = sevenSeries()
	m, _ = update(t, m, m.loadHistory(0)())

	api.historyErr = errors.New("timeout")
	m, _ = update(t, m, m.loadHistory(0)())
	c := m.charts[0]
	if c.loading || c.failed || len(c.data) != 7 || c.selection.Len() != 5 {
		t.Errorf("expected last good history after a failed refresh, got %d series, %d selected", len(c.data), c.selection.Len())
	}
}

func TestHeaderKeepsCollectStatusWhenNarrow(t *testing.T) {
	api := &fakeAPI{latest: int64Ptr(1700000000), stats: &client.ProfileStats{}}
	m := NewModel(api, Options{})
	m, _ = update(t, m, m.loadStats()())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})
	m, _ = update(t, m, keyRunes("c"))

	if got := renderHeader(&m); !strings.Contains(got, collectPending) {
		t.Errorf("narrow header dropped the collect status: %q", got)
	}
}

func TestProgressTableAlignsWideNames(t *testing.T) {
	p := newProgressPanel("Collection Progress", client.CategoryCollections)
	p.apply([]client.ProgressItem{
		{Name: "WHEAT", Progress: 5, EndValue: 50},
		{Name: "ラーメン", Progress: 1234, EndValue: 99999},
	}, nil)

	lines := strings.Split(renderProgressBody(&p, 60, 10), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", lines)
	}
	want := lipgloss.Width(lines[0])
	for _, l := range lines[1:] {
		if w := lipgloss.Width(l); w != want {
			t.Errorf("row %q is %d cells wide, header is %d", l, w, want)
		}
	}
}

func TestTruncateCountsCells(t *testing.T) {
	if got := truncate("ラーメン屋", 7); got != "ラー..." {
		t.Errorf("truncate wide = %q", got)
	}
	if got := truncate("Wheat", 10); got != "Wheat" {
		t.Errorf("truncate short = %q", got)
	}
}
