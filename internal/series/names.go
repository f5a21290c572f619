package series

import "strings"

var displayOverrides = map[string]string{
	"total_money": "Total Money",
	"kills":       "Total Kills",
	"deaths":      "Total Deaths",
}

// FormatName turns a backend series key into a display label.
//
//	FormatName("total_money")  // "Total Money"
//	FormatName("foo_bar:baz")  // "Foo Bar Baz"
//	FormatName("ENDER_PEARL")  // "ENDER PEARL"
//
// Underscores and colons become spaces and the first character of every
// ASCII word is upper-cased. The rest of each word keeps its case.
func FormatName(raw string) string {
	if name, ok := displayOverrides[raw]; ok {
		return name
	}

	b := []byte(strings.NewReplacer("_", " ", ":", " ").Replace(raw))
	inWord := false
	for i, c := range b {
		word := isWordByte(c)
		if word && !inWord && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		inWord = word
	}
	return string(b)
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
