package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares raw text for embedding. It applies NFKC, drops control
// characters other than newlines and tabs, and trims surrounding whitespace.
// ok is false when nothing is left.
func Normalize(raw string) (text string, ok bool) {
	text = norm.NFKC.String(raw)
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	text = strings.TrimSpace(text)
	return text, text != ""
}
