package report

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/pkg/numfmt"
	"github.com/Mr-Dark-debug/skydash/pkg/palette"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// WritePNG renders c as a PNG line chart, one line per series.
func WritePNG(w io.Writer, c Chart) error {
	if n := distinctTimestamps(c.Data); n < 2 {
		return fmt.Errorf("%w, got %d", ErrNotEnoughData, n)
	}

	loc := c.location()
	lo, hi := math.Inf(1), math.Inf(-1)
	var lines []chart.Series
	for i, s := range c.Data {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j] = chart.TimeToFloat64(timeutil.FromUnix(p.Timestamp).In(loc))
			ys[j] = p.Value
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
		lines = append(lines, chart.ContinuousSeries{
			Name: series.FormatName(s.Name),
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(palette.Hex(i)),
				StrokeWidth: 2.5,
			},
			XValues: xs,
			YValues: ys,
		})
	}

	// A flat series has no y span, which go-chart refuses to draw.
	if lo == hi {
		pad := math.Max(1, math.Abs(lo)*0.1)
		lo, hi = lo-pad, hi+pad
	}

	graph := chart.Chart{
		Title:  c.Title,
		Width:  1000,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return timeutil.ShortDate(chart.TimeFromFloat64(f).In(loc))
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return numfmt.Compact(f)
				}
				return ""
			},
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}
