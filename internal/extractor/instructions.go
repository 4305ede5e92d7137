package extractor

import (
	"regexp"
	"strings"

	"memento/internal/markdown"
	"memento/internal/note"
)

// FallbackInstructionsTitle names an instructions region nothing else names.
const FallbackInstructionsTitle = "Session instructions"

var sessionTitleLine = regexp.MustCompile(`(?i)^- Session Title:\s*(.+)$`)

// ExtractTopLevelSections lifts the <INSTRUCTIONS> regions left in in.Body
// that no file heading claimed. Each region is titled from the nearest
// non-blank line above it, falling back to fallbackTitle. An opening marker
// without a closing one stays in the body untouched.
func ExtractTopLevelSections(in Result, fallbackTitle string, format Formatter) (Result, Trace) {
	lines := markdown.Lines(markdown.NormalizeLineEndings(in.Body))
	fenced := markdown.FencedRanges(in.Body)
	remaining := make([]string, 0, len(lines))
	var found []Section
	var trace Trace

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if fenced.Contains(i) || !openInstructions.MatchString(strings.TrimSpace(line)) {
			remaining = append(remaining, line)
			continue
		}

		end := i + 1
		for end < len(lines) && !closeInstructions.MatchString(strings.TrimSpace(lines[end])) {
			end++
		}
		if end >= len(lines) {
			trace.MalformedInstructions++
			remaining = append(remaining, line)
			continue
		}

		found = append(found, Section{
			Title:   resolveSectionTitle(lines, i, fallbackTitle),
			Content: format(strings.Join(lines[i:end+1], "\n")),
		})
		i = end
	}

	trace.TopLevelSections = len(found)
	return Result{
		Body:     strings.TrimSpace(strings.Join(remaining, "\n")),
		Sections: in.withSections(found),
	}, trace
}

func resolveSectionTitle(lines []string, start int, fallbackTitle string) string {
	for i := start - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if title, ok := matchFileHeading(line); ok {
			return title
		}
		if m := sessionTitleLine.FindStringSubmatch(line); m != nil {
			if title := note.StripHeadingMarkers(m[1]); title != "" {
				return title
			}
		}
		break
	}
	return fallbackTitle
}

// TopLevelFallbackTitle is the title for unnamed instructions regions in a
// note: its Session Title when it has one, FallbackInstructionsTitle otherwise.
func TopLevelFallbackTitle(meta note.Metadata) string {
	if meta.SessionTitle != "" {
		return meta.SessionTitle
	}
	return FallbackInstructionsTitle
}
