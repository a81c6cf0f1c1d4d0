package translation

import (
	"regexp"
	"strings"
)

var (
	quoteChars = regexp.MustCompile(`["'“”（）《》【】「」]`)
	breakRuns  = regexp.MustCompile(`[\s.,!?;:、。，；：？！]+`)
)

// Clean normalizes a raw completion into a subtitle line: surrounding
// whitespace and double quotes are stripped, quotation and bracket
// characters removed, and runs of whitespace or sentence punctuation
// collapsed to a single space.
func Clean(raw string) string {
	text := strings.Trim(strings.TrimSpace(raw), `"`)
	text = quoteChars.ReplaceAllString(text, "")
	text = breakRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
