// Package trend derives growth rates and unusual gains from snapshot
// history. Everything is plain statistics: least squares for rates and
// Z-scores over per-interval gains for surges.
package trend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/skydash/internal/series"
	"github.com/Mr-Dark-debug/skydash/pkg/numfmt"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

const secondsPerDay = 86400.0

// ============================================================
// Growth Rate
// ============================================================

// Trend is the least squares fit of one series, with x measured in days
// since the series' first point.
type Trend struct {
	Name      string  `json:"name"`
	PerDay    float64 `json:"per_day"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	Points    int     `json:"points"`
	Latest    float64 `json:"latest"`
}

// dataPoint is a single observation for regression analysis.
type dataPoint struct {
	days  float64 // Days since first point
	value float64
}

// Fit computes the growth trend of s. Series with fewer than two points get a
// zero rate.
func Fit(s series.Series) Trend {
	t := Trend{Name: s.Name, Points: len(s.Points), Latest: s.LastValue()}
	if len(s.Points) == 0 {
		return t
	}

	base := s.Points[0].Timestamp
	points := make([]dataPoint, len(s.Points))
	for i, p := range s.Points {
		points[i] = dataPoint{
			days:  float64(p.Timestamp-base) / secondsPerDay,
			value: p.Value,
		}
	}

	slope, intercept, rSquared := linearRegression(points)
	t.PerDay = slope
	t.Intercept = intercept
	t.RSquared = rSquared
	return t
}

// FitAll fits every series in c, fastest growing first.
func FitAll(c series.Collection) []Trend {
	out := make([]Trend, 0, len(c))
	for _, s := range c {
		out = append(out, Fit(s))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerDay > out[j].PerDay })
	return out
}

// linearRegression computes ordinary least squares regression.
// Returns slope (m), intercept (b), and R-squared goodness of fit.
func linearRegression(points []dataPoint) (slope, intercept, rSquared float64) {
	n := float64(len(points))
	if n < 2 {
		return 0, 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		sumX += p.days
		sumY += p.value
		sumXY += p.days * p.value
		sumX2 += p.days * p.days
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, sumY / n, 0
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for _, p := range points {
		predicted := slope*p.days + intercept
		ssRes += (p.value - predicted) * (p.value - predicted)
		ssTot += (p.value - meanY) * (p.value - meanY)
	}

	if ssTot == 0 {
		rSquared = 1.0
	} else {
		rSquared = 1 - ssRes/ssTot
	}

	return slope, intercept, rSquared
}

// ============================================================
// Surge Detection
// ============================================================

// Surge is an interval whose gain rate was far above the series' norm.
type Surge struct {
	Name   string  `json:"name"`
	Day    string  `json:"day"`
	Gain   float64 `json:"gain"`
	PerDay float64 `json:"per_day"`
	ZScore float64 `json:"z_score"`
}

// DetectSurges flags intervals between consecutive points whose per-day gain
// has a Z-score above 2. At least three intervals are needed.
func DetectSurges(s series.Series, loc *time.Location) []Surge {
	if len(s.Points) < 4 {
		return nil
	}

	type interval struct {
		end    int64
		gain   float64
		perDay float64
	}
	var ivs []interval
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1], s.Points[i]
		dt := float64(cur.Timestamp-prev.Timestamp) / secondsPerDay
		if dt <= 0 {
			continue
		}
		gain := cur.Value - prev.Value
		ivs = append(ivs, interval{end: cur.Timestamp, gain: gain, perDay: gain / dt})
	}
	if len(ivs) < 3 {
		return nil
	}

	var sum, sumSq float64
	for _, iv := range ivs {
		sum += iv.perDay
		sumSq += iv.perDay * iv.perDay
	}
	n := float64(len(ivs))
	mean := sum / n
	stddev := math.Sqrt(math.Max(0, sumSq/n-mean*mean))
	if stddev == 0 {
		return nil
	}

	var surges []Surge
	for _, iv := range ivs {
		z := (iv.perDay - mean) / stddev
		if z <= 2.0 {
			continue
		}
		surges = append(surges, Surge{
			Name:   s.Name,
			Day:    timeutil.DayKey(iv.end, loc),
			Gain:   iv.gain,
			PerDay: iv.perDay,
			ZScore: math.Round(z*100) / 100,
		})
	}

	sort.Slice(surges, func(i, j int) bool { return surges[i].ZScore > surges[j].ZScore })
	return surges
}

// ============================================================
// Report
// ============================================================

// Report is the output of `skydash trends`.
type Report struct {
	Category    string   `json:"category"`
	Range       string   `json:"range"`
	GeneratedAt string   `json:"generated_at"`
	Trends      []Trend  `json:"trends"`
	Surges      []Surge  `json:"surges"`
	Warnings    []string `json:"warnings"`
}

// Analyze builds a report over every series of c.
func Analyze(category, rng string, c series.Collection, loc *time.Location) *Report {
	r := &Report{
		Category:    category,
		Range:       rng,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Trends:      FitAll(c),
	}
	for _, s := range c {
		r.Surges = append(r.Surges, DetectSurges(s, loc)...)
		if len(s.Points) < 2 {
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("%s has fewer than two snapshots in this range", series.FormatName(s.Name)))
		}
	}
	sort.SliceStable(r.Surges, func(i, j int) bool { return r.Surges[i].ZScore > r.Surges[j].ZScore })
	return r
}

// FormatReport renders r as markdown.
func FormatReport(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s trends (%s)\n\n", series.FormatName(r.Category), r.Range)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.GeneratedAt)

	if len(r.Trends) > 0 {
		b.WriteString("| Series | Latest | Per Day | R² | Points |\n")
		b.WriteString("|--------|--------|---------|----|--------|\n")
		for _, t := range r.Trends {
			fmt.Fprintf(&b, "| %s | %s | %s | %.3f | %d |\n",
				series.FormatName(t.Name), numfmt.Round(t.Latest),
				numfmt.Signed(t.PerDay), t.RSquared, t.Points)
		}
		b.WriteString("\n")
	}

	if len(r.Surges) > 0 {
		b.WriteString("## Surges\n\n")
		for _, s := range r.Surges {
			fmt.Fprintf(&b, "- %s on %s: %s (Z-score %.2f)\n",
				series.FormatName(s.Name), s.Day, numfmt.Signed(s.Gain), s.ZScore)
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
