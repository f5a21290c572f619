// Package palette holds the series colours shared by the dashboard charts
// and the exported reports.
package palette

import "strings"

// Series lists the chart line colours in assignment order.
var Series = []string{
	"#8884d8", "#82ca9d", "#ffc658", "#ff7300", "#00C49F",
	"#FFBB28", "#FF8042", "#0088FE", "#ff80ea", "#d65c8d",
}

// Color returns the colour for the i-th series, wrapping around the palette.
func Color(i int) string {
	if i < 0 {
		i = -i
	}
	return Series[i%len(Series)]
}

// Hex returns Color(i) without the leading '#'.
func Hex(i int) string {
	return strings.TrimPrefix(Color(i), "#")
}
