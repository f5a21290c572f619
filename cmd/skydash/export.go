package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/skydash/internal/report"
	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// exportCmd writes the default selection of a category to a PNG or HTML
// chart, or an XLSX workbook that also carries the progress table.
func exportCmd() *cobra.Command {
	var (
		out           string
		rng           string
		progressRange string
		top           int
	)
	cmd := &cobra.Command{
		Use:   "export <category> --out file.{png,html,xlsx}",
		Short: "Write a chart or workbook of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			if err := checkRanges(rng, progressRange); err != nil {
				return err
			}
			format, err := report.FormatFor(out)
			if err != nil {
				return err
			}

			api, _, err := newClient()
			if err != nil {
				return err
			}
			category := args[0]

			data, err := api.History(cmd.Context(), category, rng)
			if err != nil {
				return fmt.Errorf("fetching history: %w", err)
			}
			chart := report.Chart{
				Title:    series.FormatName(category) + " History (" + rng + ")",
				Data:     data.Subset(series.DefaultSelection(data, top)),
				Location: time.Local,
			}

			if format == report.FormatXLSX {
				chart.Progress, err = progressFor(cmd, api, category, progressRange)
				if err != nil {
					return fmt.Errorf("fetching progress: %w", err)
				}
			}

			if err := report.Export(out, chart); err != nil {
				if errors.Is(err, report.ErrNotEnoughData) {
					return fmt.Errorf("%s has too few snapshots in %s to draw: %w", category, rng, err)
				}
				return err
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file: .png, .html or .xlsx")
	cmd.Flags().StringVar(&rng, "range", timeutil.Range30d, "History range: 7d, 30d or all")
	cmd.Flags().StringVar(&progressRange, "progress-range", timeutil.RangeToday, "Progress range for .xlsx: today, 7d or 30d")
	cmd.Flags().IntVar(&top, "top", series.DefaultTopN, "Number of series to draw")
	return cmd
}
