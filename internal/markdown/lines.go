package markdown

import "strings"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// NormalizeLineEndings converts CRLF line endings to LF.
func NormalizeLineEndings(value string) string {
	return strings.ReplaceAll(value, "\r\n", "\n")
}

// EscapeHTML escapes the characters that would let text break out of an HTML element.
func EscapeHTML(value string) string {
	return htmlEscaper.Replace(value)
}

// Lines splits normalized text into lines. An empty string yields a single empty line.
func Lines(value string) []string {
	return strings.Split(value, "\n")
}

// LineRange is a half-open [Start, End) span of line indices.
type LineRange struct {
	Start int
	End   int
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line < r.End
}

// Ranges is an ordered list of line spans.
type Ranges []LineRange

// Contains reports whether line falls inside any of the ranges.
func (rs Ranges) Contains(line int) bool {
	for _, r := range rs {
		if r.Contains(line) {
			return true
		}
	}
	return false
}
