// Package report exports dashboard data to files: PNG and HTML line charts
// of a history category, and XLSX workbooks holding the history rows next to
// the progress table.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/skydash/internal/client"
	"github.com/Mr-Dark-debug/skydash/internal/series"
)

// ErrNotEnoughData is returned when a chart has fewer than two distinct
// timestamps to draw.
var ErrNotEnoughData = errors.New("need at least 2 data points")

// Format is an export file type.
type Format string

const (
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the export format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return FormatPNG, nil
	case "html", "htm":
		return FormatHTML, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want .png, .html or .xlsx)", filepath.Ext(path))
}

// Chart is one history category ready to export. Data should already be
// narrowed to the series worth drawing.
type Chart struct {
	Title    string
	Data     series.Collection
	Location *time.Location

	// Progress is written to its own sheet by the XLSX export.
	Progress []client.ProgressItem
}

func (c Chart) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Write renders c in format f.
func Write(w io.Writer, f Format, c Chart) error {
	switch f {
	case FormatPNG:
		return WritePNG(w, c)
	case FormatHTML:
		return WriteHTML(w, c)
	case FormatXLSX:
		return WriteXLSX(w, c)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// Export writes c to path in the format its extension names.
func Export(path string, c Chart) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(out, f, c); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// distinctTimestamps counts the different snapshot times across c.
func distinctTimestamps(c series.Collection) int {
	seen := make(map[int64]struct{})
	for _, s := range c {
		for _, p := range s.Points {
			seen[p.Timestamp] = struct{}{}
		}
	}
	return len(seen)
}
