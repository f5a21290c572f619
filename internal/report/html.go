package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/pkg/palette"
)

const (
	htmlBackground = "#1a202c"
	htmlText       = "#e2e8f0"
)

// WriteHTML renders c as an interactive echarts page. The x axis holds one
// entry per calendar day and days without a point leave a gap.
func WriteHTML(w io.Writer, c Chart) error {
	if n := distinctTimestamps(c.Data); n < 2 {
		return fmt.Errorf("%w, got %d", ErrNotEnoughData, n)
	}

	rows := series.Reshape(c.Data, c.location())
	dates := make([]string, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       c.Title,
			Width:           "1000px",
			Height:          "500px",
			BackgroundColor: htmlBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      c.Title,
			TitleStyle: &opts.TextStyle{Color: htmlText},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "30",
			TextStyle: &opts.TextStyle{Color: htmlText},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: htmlText},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: htmlText},
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "80",
			Right:  "40",
			Top:    "80",
			Bottom: "60",
		}),
	)
	line.SetXAxis(dates)

	for i, s := range c.Data {
		data := make([]opts.LineData, len(rows))
		for j, r := range rows {
			if v, ok := r.Value(s.Name); ok {
				data[j] = opts.LineData{Value: v}
			} else {
				data[j] = opts.LineData{Value: nil}
			}
		}
		color := palette.Color(i)
		line.AddSeries(series.FormatName(s.Name), data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		)
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(true)}),
	)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("rendering html chart: %w", err)
	}
	return nil
}
