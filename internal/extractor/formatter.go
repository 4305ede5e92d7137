package extractor

import (
	"regexp"
	"strings"

	"memento/internal/markdown"
)

// NoContent stands in for a section whose body is empty.
const NoContent = "_No content_"

// Formatter turns the raw lines of one lifted block into display-ready Markdown.
type Formatter func(raw string) string

// DefaultReflowProviders lists the providers whose capture tools are known to
// flatten embedded files onto a single line.
var DefaultReflowProviders = []string{"codex", "claude"}

var (
	instructionLine   = regexp.MustCompile(`(?i)^</?INSTRUCTIONS>$`)
	openInstructions  = regexp.MustCompile(`(?i)^<INSTRUCTIONS>$`)
	closeInstructions = regexp.MustCompile(`(?i)^</INSTRUCTIONS>$`)

	flattenSignals = regexp.MustCompile(`#{1,6}\s|\s-\s|\s\d+\)\s|</?INSTRUCTIONS>`)

	reflowMarkers      = regexp.MustCompile(`(?i)\s*(</?INSTRUCTIONS>)\s*`)
	reflowHeadings     = regexp.MustCompile(`\s+(#{1,6}\s+)`)
	reflowDashItems    = regexp.MustCompile(`\s+(-\s+)`)
	reflowColonNumbers = regexp.MustCompile(`:\s+(\d+\)\s)`)
	reflowNumbers      = regexp.MustCompile(`\s+(\d+\)\s)`)
	reflowLeadSentence = regexp.MustCompile(`(?m)^(#{1,6}\s+[^\n]+?)\s+(A|An|The)\s+`)
	extraBlankLines    = regexp.MustCompile(`\n{3,}`)
)

// NewFormatter picks the formatter for a provider. Providers listed in
// reflowProviders (case-insensitive) get ReflowSection; any other provider
// gets VerbatimSection.
func NewFormatter(provider string, reflowProviders []string) Formatter {
	name := strings.ToLower(strings.TrimSpace(provider))
	for _, p := range reflowProviders {
		if strings.ToLower(strings.TrimSpace(p)) == name && name != "" {
			return ReflowSection
		}
	}
	return VerbatimSection
}

// VerbatimSection normalizes line endings and trims the block.
func VerbatimSection(raw string) string {
	return strings.TrimSpace(markdown.NormalizeLineEndings(raw))
}

// ReflowSection returns the block as-is unless it looks flattened, in which
// case the headings, list items and instruction markers are put back on
// their own lines.
func ReflowSection(raw string) string {
	content := strings.TrimSpace(markdown.NormalizeLineEndings(raw))
	if content == "" {
		return NoContent
	}
	if !IsFlattened(content) {
		return content
	}

	content = reflowMarkers.ReplaceAllString(content, "\n${1}\n")
	content = reflowHeadings.ReplaceAllString(content, "\n\n${1}")
	content = reflowDashItems.ReplaceAllString(content, "\n${1}")
	content = reflowColonNumbers.ReplaceAllString(content, ":\n${1}")
	content = reflowNumbers.ReplaceAllString(content, "\n${1}")
	content = reflowLeadSentence.ReplaceAllString(content, "${1}\n${2} ")
	content = extraBlankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// IsFlattened reports whether content lost its line breaks upstream: at most
// two non-marker lines that still carry Markdown structure.
func IsFlattened(content string) bool {
	var kept []string
	for _, line := range markdown.Lines(markdown.NormalizeLineEndings(content)) {
		line = strings.TrimSpace(line)
		if line == "" || instructionLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 || len(kept) > 2 {
		return false
	}
	joined := strings.Join(kept, " ")
	return flattenSignals.MatchString(joined) || strings.Contains(joined, "SKILL.md")
}
