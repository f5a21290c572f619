package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// API is the part of the backend client the dashboard reads from.
type API interface {
	LatestSnapshotTimestamp(ctx context.Context) (*int64, error)
	ProfileStats(ctx context.Context, ts int64) (*client.ProfileStats, error)
	Diff(ctx context.Context, category, rng string) ([]client.ProgressItem, error)
	History(ctx context.Context, category, rng string) (series.Collection, error)
	TriggerCollect(ctx context.Context) (*client.CollectAck, error)
}

// Options tunes dashboard behaviour.
type Options struct {
	// TopN is how many series a chart selects on its first load.
	TopN int
	// RefreshInterval re-fetches every panel periodically. Zero disables it.
	RefreshInterval time.Duration
	// ReloadDelay is the wait between a started collection and the reload.
	ReloadDelay time.Duration
	// CollectCooldown keeps the collect key disabled after a trigger.
	CollectCooldown time.Duration
	// Location is the zone chart days are cut in. Nil means local time.
	Location *time.Location
	Logger   *zap.Logger
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{
		TopN:            series.DefaultTopN,
		RefreshInterval: time.Minute,
		ReloadDelay:     5 * time.Second,
		CollectCooldown: 5 * time.Second,
	}
}

// Header messages.
const (
	infoLoading     = "Loading..."
	infoNoData      = "No data found. Press c to collect."
	infoBackendDown = "Error: Could not connect to backend."

	collectPending = "Triggering data collection..."
	collectFailed  = "Failed to start collection."
	collectErrored = "Error starting collection."
)

const slotStats = "stats"

// ────────────────────────────────────────────────────────────
// Model
// ────────────────────────────────────────────────────────────

// Model is the root BubbleTea model for the skydash dashboard.
// State is organized by panel; rendering is delegated to component
// functions in separate files.
type Model struct {
	api     API
	tracker *client.Tracker
	ctx     context.Context
	opts    Options
	logger  *zap.Logger

	// Panels
	stats  statsPanel
	tables []progressPanel
	charts []chartPanel

	// UI state
	focus         int // index over tables then charts
	width         int
	height        int
	info          string
	collectStatus string
	collecting    bool
	showHelp      bool

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

// NewModel creates a dashboard reading from api.
func NewModel(api API, opts Options) Model {
	def := DefaultOptions()
	if opts.TopN <= 0 {
		opts.TopN = def.TopN
	}
	if opts.ReloadDelay <= 0 {
		opts.ReloadDelay = def.ReloadDelay
	}
	if opts.CollectCooldown <= 0 {
		opts.CollectCooldown = def.CollectCooldown
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = dimStyle

	return Model{
		api:     api,
		tracker: client.NewTracker(),
		ctx:     context.Background(),
		opts:    opts,
		logger:  logger,
		tables: []progressPanel{
			newProgressPanel("Collection Progress", client.CategoryCollections),
			newProgressPanel("Bestiary Progress", client.CategoryBestiary),
		},
		charts: []chartPanel{
			newChartPanel("Skill XP Progression", client.CategorySkills),
			newChartPanel("Collection History", client.CategoryCollections),
			newChartPanel("Bestiary History", client.CategoryBestiary),
			newChartPanel("Profile Stats History", client.CategoryProfileStats),
		},
		info:    infoLoading,
		spinner: spin,
		help:    help.New(),
		keys:    defaultKeyMap(),
	}
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

type statsLoadedMsg struct {
	ticket   client.Ticket
	latest   *int64
	stats    *client.ProfileStats
	err      error // latest timestamp failed
	statsErr error // profile stats failed
}

type progressLoadedMsg struct {
	ticket client.Ticket
	panel  int
	items  []client.ProgressItem
	err    error
}

type historyLoadedMsg struct {
	ticket client.Ticket
	panel  int
	data   series.Collection
	err    error
}

type collectDoneMsg struct {
	ack *client.CollectAck
	err error
}

type collectCooldownMsg struct{}
type reloadMsg struct{}
type pollMsg struct{}

// ────────────────────────────────────────────────────────────
// Init
// ────────────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadAll(), m.spinner.Tick, m.schedulePoll())
}

// loadAll re-fetches every panel with its current range. Selections are
// kept.
func (m Model) loadAll() tea.Cmd {
	cmds := []tea.Cmd{m.loadStats()}
	for i := range m.tables {
		m.tables[i].loading = true
		cmds = append(cmds, m.loadProgress(i))
	}
	for i := range m.charts {
		m.charts[i].loading = true
		cmds = append(cmds, m.loadHistory(i))
	}
	return tea.Batch(cmds...)
}

// loadStats fetches the latest snapshot time, then that snapshot's stats.
func (m Model) loadStats() tea.Cmd {
	ctx, tk := m.tracker.Begin(m.ctx, slotStats, client.RequestKey{Endpoint: "latest_snapshot_timestamp"})
	api := m.api
	return func() tea.Msg {
		latest, err := api.LatestSnapshotTimestamp(ctx)
		if err != nil || latest == nil {
			return statsLoadedMsg{ticket: tk, latest: latest, err: err}
		}
		stats, err := api.ProfileStats(ctx, *latest)
		return statsLoadedMsg{ticket: tk, latest: latest, stats: stats, statsErr: err}
	}
}

func (m Model) loadProgress(i int) tea.Cmd {
	p := m.tables[i]
	ctx, tk := m.tracker.Begin(m.ctx, p.slot(), client.RequestKey{Endpoint: "diff/" + p.category, Range: p.rng})
	api := m.api
	return func() tea.Msg {
		items, err := api.Diff(ctx, p.category, p.rng)
		return progressLoadedMsg{ticket: tk, panel: i, items: items, err: err}
	}
}

func (m Model) loadHistory(i int) tea.Cmd {
	c := m.charts[i]
	ctx, tk := m.tracker.Begin(m.ctx, c.slot(), client.RequestKey{Endpoint: "history/" + c.category, Range: c.rng})
	api := m.api
	return func() tea.Msg {
		data, err := api.History(ctx, c.category, c.rng)
		return historyLoadedMsg{ticket: tk, panel: i, data: data, err: err}
	}
}

func (m Model) triggerCollect() tea.Cmd {
	api := m.api
	ctx := m.ctx
	return func() tea.Msg {
		ack, err := api.TriggerCollect(ctx)
		return collectDoneMsg{ack: ack, err: err}
	}
}

func (m Model) schedulePoll() tea.Cmd {
	if m.opts.RefreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.opts.RefreshInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// ────────────────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statsLoadedMsg:
		if !m.tracker.Accept(msg.ticket) {
			return m, nil
		}
		m.applyStats(msg)
		return m, nil

	case progressLoadedMsg:
		if !m.tracker.Accept(msg.ticket) {
			return m, nil
		}
		p := &m.tables[msg.panel]
		if msg.err != nil {
			m.logger.Warn("progress fetch failed", zap.String("category", p.category), zap.String("range", p.rng), zap.Error(msg.err))
		}
		p.apply(msg.items, msg.err)
		return m, nil

	case historyLoadedMsg:
		if !m.tracker.Accept(msg.ticket) {
			return m, nil
		}
		c := &m.charts[msg.panel]
		if msg.err != nil {
			m.logger.Warn("history fetch failed", zap.String("category", c.category), zap.String("range", c.rng), zap.Error(msg.err))
		}
		c.apply(msg.data, msg.err, m.opts.TopN)
		return m, nil

	case collectDoneMsg:
		return m.applyCollect(msg)

	case collectCooldownMsg:
		m.collecting = false
		return m, nil

	case reloadMsg:
		m.collectStatus = ""
		return m, m.loadAll()

	case pollMsg:
		return m, tea.Batch(m.loadAll(), m.schedulePoll())
	}

	return m, nil
}

func (m *Model) applyStats(msg statsLoadedMsg) {
	if msg.err != nil {
		m.logger.Warn("latest snapshot fetch failed", zap.Error(msg.err))
		if !m.stats.loaded {
			m.stats.failed = true
			m.info = infoBackendDown
		}
		return
	}

	m.stats.loaded = true
	m.stats.failed = false
	m.stats.latest = msg.latest
	if msg.latest == nil {
		m.info = infoNoData
		return
	}
	m.info = "Latest data: " + timeutil.FormatTimestampFull(*msg.latest)

	if msg.statsErr != nil {
		m.logger.Warn("profile stats fetch failed", zap.Int64("timestamp", *msg.latest), zap.Error(msg.statsErr))
		return
	}
	m.stats.stats = msg.stats
}

func (m Model) applyCollect(msg collectDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.logger.Warn("collect trigger failed", zap.Error(msg.err))
		var status *client.StatusError
		if errors.As(msg.err, &status) {
			m.collectStatus = collectFailed
		} else {
			m.collectStatus = collectErrored
		}
		return m, nil
	}

	if msg.ack != nil {
		m.logger.Info("collection started", zap.String("job_id", msg.ack.JobID))
	}
	m.collectStatus = "Collection process started! Refreshing in " + formatDelay(m.opts.ReloadDelay) + "..."
	return m, tea.Tick(m.opts.ReloadDelay, func(time.Time) tea.Msg { return reloadMsg{} })
}

// handleKey routes keyboard input to the global bindings, then to the
// focused panel.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ── Global ──

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.tracker.CancelAll()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.NextPanel):
		m.focus = (m.focus + 1) % m.panelCount()
		return m, nil

	case key.Matches(msg, m.keys.PrevPanel):
		m.focus = (m.focus + m.panelCount() - 1) % m.panelCount()
		return m, nil

	case key.Matches(msg, m.keys.Collect):
		if m.collecting {
			return m, nil
		}
		m.collecting = true
		m.collectStatus = collectPending
		return m, tea.Batch(
			m.triggerCollect(),
			tea.Tick(m.opts.CollectCooldown, func(time.Time) tea.Msg { return collectCooldownMsg{} }),
		)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadAll()
	}

	// ── Focused panel ──

	if i, ok := m.focusedTable(); ok {
		p := &m.tables[i]
		switch {
		case key.Matches(msg, m.keys.NextRange):
			p.rng = cycle(progressRanges, p.rng, 1)
			p.loading = true
			return m, m.loadProgress(i)
		case key.Matches(msg, m.keys.PrevRange):
			p.rng = cycle(progressRanges, p.rng, -1)
			p.loading = true
			return m, m.loadProgress(i)
		case key.Matches(msg, m.keys.Down):
			p.scroll = clamp(p.scroll+1, 0, maxInt(len(p.items)-1, 0))
		case key.Matches(msg, m.keys.Up):
			p.scroll = clamp(p.scroll-1, 0, maxInt(len(p.items)-1, 0))
		}
		return m, nil
	}

	if i, ok := m.focusedChart(); ok {
		c := &m.charts[i]
		switch {
		case key.Matches(msg, m.keys.NextRange):
			c.rng = cycle(chartRanges, c.rng, 1)
			c.loading = true
			return m, m.loadHistory(i)
		case key.Matches(msg, m.keys.PrevRange):
			c.rng = cycle(chartRanges, c.rng, -1)
			c.loading = true
			return m, m.loadHistory(i)
		case key.Matches(msg, m.keys.Right):
			c.moveCursor(1)
		case key.Matches(msg, m.keys.Left):
			c.moveCursor(-1)
		case key.Matches(msg, m.keys.Toggle):
			c.toggleCursor()
		}
	}
	return m, nil
}

func (m Model) panelCount() int { return len(m.tables) + len(m.charts) }

func (m Model) focusedTable() (int, bool) {
	if m.focus < len(m.tables) {
		return m.focus, true
	}
	return 0, false
}

func (m Model) focusedChart() (int, bool) {
	i := m.focus - len(m.tables)
	if i >= 0 && i < len(m.charts) {
		return i, true
	}
	return 0, false
}

// ────────────────────────────────────────────────────────────
// View
// ────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	header := renderHeader(&m)
	footer := renderFooter(&m)
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)

	var body string
	if m.width < compactWidth {
		body = m.renderCompactLayout(bodyHeight)
	} else {
		body = m.renderMainLayout(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// compactWidth is the narrowest terminal that gets the full layout.
const compactWidth = 80

// renderMainLayout stacks the stats row, the two progress tables side by
// side, and the focused chart.
func (m Model) renderMainLayout(totalHeight int) string {
	stats := renderStatsPanel(&m, m.width)
	rest := maxInt(totalHeight-lipgloss.Height(stats), 8)

	tableHeight := maxInt(rest*40/100, 6)
	chartHeight := maxInt(rest-tableHeight, 6)

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth
	tables := lipgloss.JoinHorizontal(lipgloss.Top,
		renderProgressPanel(&m, 0, leftWidth, tableHeight),
		renderProgressPanel(&m, 1, rightWidth, tableHeight),
	)

	chart := m.focusedChartIndex()
	return lipgloss.JoinVertical(lipgloss.Left,
		stats,
		tables,
		renderChartPanel(&m, chart, m.width, chartHeight),
	)
}

// renderCompactLayout is used when the terminal is narrow. Only a one-line
// stats summary and the focused panel are shown.
func (m Model) renderCompactLayout(totalHeight int) string {
	stats := renderStatsLine(&m, m.width)
	rest := maxInt(totalHeight-lipgloss.Height(stats), 6)

	var panel string
	if i, ok := m.focusedTable(); ok {
		panel = renderProgressPanel(&m, i, m.width, rest)
	} else {
		panel = renderChartPanel(&m, m.focusedChartIndex(), m.width, rest)
	}
	return lipgloss.JoinVertical(lipgloss.Left, stats, panel)
}

// focusedChartIndex is the chart shown in the chart area: the focused one,
// or the first chart while a table has focus.
func (m Model) focusedChartIndex() int {
	if i, ok := m.focusedChart(); ok {
		return i
	}
	return 0
}
