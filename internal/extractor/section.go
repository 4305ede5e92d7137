package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"memento/internal/markdown"
)

// Section is an embedded document lifted out of the note body.
type Section struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Key identifies a section for deduplication: the case-folded normalized
// title and the normalized content.
func (s Section) Key() string {
	return cases.Fold().String(normalizeForKey(s.Title)) + "\n---\n" + normalizeForKey(s.Content)
}

// ID is a short stable digest of Key.
func (s Section) ID() string {
	hash := sha256.Sum256([]byte(s.Key()))
	return hex.EncodeToString(hash[:8])
}

// Result is the value passed between extraction stages: the note body that
// is still to be rendered and the sections lifted out of it so far.
type Result struct {
	Body     string
	Sections []Section
}

// withSections returns a copy of r with extra appended after r.Sections.
func (r Result) withSections(extra []Section) []Section {
	out := make([]Section, 0, len(r.Sections)+len(extra))
	out = append(out, r.Sections...)
	return append(out, extra...)
}

// Trace counts what each extraction stage did.
type Trace struct {
	FileSections          int `json:"file_sections" yaml:"file_sections"`
	TopLevelSections      int `json:"top_level_sections" yaml:"top_level_sections"`
	DuplicatesDropped     int `json:"duplicates_dropped" yaml:"duplicates_dropped"`
	MalformedInstructions int `json:"malformed_instructions" yaml:"malformed_instructions"`
}

var collapsedBlankLines = regexp.MustCompile(`\n{3,}`)

func normalizeForKey(value string) string {
	lines := markdown.Lines(markdown.NormalizeLineEndings(value))
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r\f\v")
	}
	joined := collapsedBlankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(joined)
}
