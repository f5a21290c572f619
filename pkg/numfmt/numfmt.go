// Package numfmt formats counts and coin amounts for display.
package numfmt

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Int formats n with thousands grouping, e.g. 1234567 -> "1,234,567".
func Int(n int64) string {
	return printer.Sprintf("%d", n)
}

// Round rounds v half away from zero and formats it with grouping.
func Round(v float64) string {
	return Int(int64(math.Round(v)))
}

// Signed formats a progress delta with an explicit plus sign for gains.
func Signed(v float64) string {
	if v > 0 {
		return "+" + Round(v)
	}
	return Round(v)
}

// Compact formats an axis tick: values of 1000 and above become "Nk".
func Compact(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.0fk", v/1000)
	}
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
