package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/internal/collector"
	"github.com/Mr-Dark-debug/skydash/internal/database"
	"github.com/Mr-Dark-debug/skydash/internal/logging"
	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/internal/trend"
	"github.com/Mr-Dark-debug/skydash/pkg/numfmt"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// checkRanges rejects any range the backend does not know.
func checkRanges(ranges ...string) error {
	for _, r := range ranges {
		if !timeutil.ValidRange(r) {
			return fmt.Errorf("invalid range %q (want today, 7d, 30d or all)", r)
		}
	}
	return nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// latestCmd prints the newest snapshot time and its headline stats.
func latestCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the newest snapshot and its profile stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ts, err := api.LatestSnapshotTimestamp(ctx)
			if err != nil {
				return fmt.Errorf("fetching latest snapshot: %w", err)
			}
			if ts == nil {
				fmt.Println("No data found. Run 'skydash collect' first.")
				return nil
			}
			stats, err := api.ProfileStats(ctx, *ts)
			if err != nil {
				return fmt.Errorf("fetching profile stats: %w", err)
			}

			if asJSON {
				return printJSON(map[string]any{"timestamp": *ts, "stats": stats})
			}
			fmt.Printf("Latest data: %s (%s)\n\n", timeutil.FormatTimestampFull(*ts), timeutil.RelativeTime(*ts))
			fmt.Printf("  Total Money:   %s\n", numfmt.Round(stats.TotalMoney()))
			fmt.Printf("  Total Kills:   %s\n", numfmt.Round(stats.Kills))
			fmt.Printf("  Total Deaths:  %s\n", numfmt.Round(stats.DeathCount))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// historyCmd prints reshaped daily rows of the default series selection.
func historyCmd() *cobra.Command {
	var (
		rng    string
		top    int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history <category>",
		Short: "Print daily history rows of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRanges(rng); err != nil {
				return err
			}
			api, _, err := newClient()
			if err != nil {
				return err
			}
			data, err := api.History(cmd.Context(), args[0], rng)
			if err != nil {
				return fmt.Errorf("fetching history: %w", err)
			}

			names := series.DefaultSelection(data, top)
			rows := series.Reshape(data.Subset(names), time.Local)
			if asJSON {
				return printJSON(rows)
			}
			if len(rows) == 0 {
				fmt.Println("No history in this period.")
				return nil
			}

			headers := []string{"Date"}
			for _, n := range names {
				headers = append(headers, series.FormatName(n))
			}
			t := newTable(headers...)
			for _, r := range rows {
				line := []string{r.Date}
				for _, n := range names {
					if v, ok := r.Value(n); ok {
						line = append(line, numfmt.Round(v))
					} else {
						line = append(line, "")
					}
				}
				t.Row(line...)
			}
			fmt.Println(t.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&rng, "range", timeutil.Range7d, "Range: 7d, 30d or all")
	cmd.Flags().IntVar(&top, "top", series.DefaultTopN, "Number of series to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// diffCmd prints the progress table of a category.
func diffCmd() *cobra.Command {
	var (
		rng    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "diff <category>",
		Short: "Print the progress table of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRanges(rng); err != nil {
				return err
			}
			api, _, err := newClient()
			if err != nil {
				return err
			}
			items, err := api.Diff(cmd.Context(), args[0], rng)
			if err != nil {
				return fmt.Errorf("fetching progress: %w", err)
			}
			if asJSON {
				return printJSON(items)
			}
			if len(items) == 0 {
				fmt.Println("No progress in this period.")
				return nil
			}

			t := newTable("Item", "Progress", "Total")
			for _, it := range items {
				t.Row(series.FormatName(it.Name), "+"+numfmt.Round(it.Progress), numfmt.Round(it.EndValue))
			}
			fmt.Println(t.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&rng, "range", timeutil.RangeToday, "Range: today, 7d or 30d")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

// trendsCmd runs the growth analysis over a category's history.
func trendsCmd() *cobra.Command {
	var (
		rng          string
		outputFormat string
	)
	cmd := &cobra.Command{
		Use:   "trends <category>",
		Short: "Growth rate per series, with unusual gains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRanges(rng); err != nil {
				return err
			}
			api, _, err := newClient()
			if err != nil {
				return err
			}
			data, err := api.History(cmd.Context(), args[0], rng)
			if err != nil {
				return fmt.Errorf("fetching history: %w", err)
			}

			report := trend.Analyze(args[0], rng, data, time.Local)
			switch outputFormat {
			case "json":
				return printJSON(report)
			case "markdown":
				fmt.Print(trend.FormatReport(report))
				return nil
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
		},
	}
	cmd.Flags().StringVar(&rng, "range", timeutil.Range30d, "Range: 7d, 30d or all")
	cmd.Flags().StringVar(&outputFormat, "format", "markdown", "Output format: markdown, json")
	return cmd
}

// collectCmd triggers a collection on the backend, or with --local runs the
// collector in this process against the database file.
func collectCmd() *cobra.Command {
	var (
		local  bool
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Trigger a collection (or run one locally)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !local {
				api, _, err := newClient()
				if err != nil {
					return err
				}
				ack, err := api.TriggerCollect(cmd.Context())
				if err != nil {
					return fmt.Errorf("triggering collection: %w", err)
				}
				fmt.Println(ack.Message)
				if ack.JobID != "" {
					fmt.Printf("  Job: %s\n", ack.JobID)
				}
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.File)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
				return fmt.Errorf("creating database directory: %w", err)
			}
			store, err := database.NewDBService(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer store.Close()

			tiers, found, err := collector.LoadThresholds(cfg.Hypixel.CollectionsFile)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintf(os.Stderr, "warning: %s not found, collection tiers will be 0\n", cfg.Hypixel.CollectionsFile)
			}

			c := collector.New(collector.Config{
				BaseURL:    cfg.Hypixel.BaseURL,
				APIKey:     cfg.Hypixel.APIKey,
				ProfileID:  cfg.Hypixel.ProfileID,
				PlayerUUID: cfg.Hypixel.PlayerUUID,
				Timeout:    cfg.API.Timeout,
			}, store, tiers, logger)

			ts, err := c.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("collecting: %w", err)
			}
			fmt.Printf("Snapshot stored at %s\n", timeutil.FormatTimestampFull(ts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Run the collector in this process")
	cmd.Flags().StringVar(&dbPath, "db", "", "Database file for --local (default from config)")
	return cmd
}

// statusCmd shows backend health by querying the metrics endpoint.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend status and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := newClient()
			if err != nil {
				return err
			}
			m, err := api.Metrics(cmd.Context())
			if err != nil {
				fmt.Println("⚠ skydash backend is not reachable.")
				fmt.Printf("  Start it with: skydash-server\n")
				fmt.Printf("  (tried: %s)\n", api.BaseURL())
				return err
			}

			fmt.Println("✅ skydash backend is running.")
			fmt.Println()
			rows := []struct{ label, key string }{
				{"Requests", "requests_total"},
				{"Errors", "error_count"},
				{"Collections started", "collections_started"},
				{"Collections succeeded", "collections_succeeded"},
				{"Collections failed", "collections_failed"},
				{"Collection running", "collection_running"},
				{"Uptime (s)", "uptime_seconds"},
			}
			for _, r := range rows {
				fmt.Printf("  %-22s %v\n", r.label+":", m[r.key])
			}
			if v, ok := m["last_snapshot"].(float64); ok && v > 0 {
				fmt.Printf("  %-22s %s\n", "Last snapshot:", timeutil.FormatTimestampFull(int64(v)))
			}
			return nil
		},
	}
}

// progressFor fetches the progress table used by the XLSX export. Other
// categories have no table.
func progressFor(cmd *cobra.Command, api *client.Client, category, rng string) ([]client.ProgressItem, error) {
	switch category {
	case client.CategoryCollections, client.CategoryBestiary, client.CategorySkills, client.CategorySlayers:
		return api.Diff(cmd.Context(), category, rng)
	}
	return nil, nil
}
