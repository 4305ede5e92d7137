package extractor

import (
	"regexp"
	"strings"

	"memento/internal/markdown"
	"memento/internal/note"
)

var (
	fileHeadingPattern    = regexp.MustCompile(`(?i)^#{1,6}\s+(\S+\.md\b.*)$`)
	speakerHeadingPattern = regexp.MustCompile(`^###\s+(.+?)\s*$`)
)

// fileHeading is a heading that names a Markdown file, e.g. "# AGENTS.md instructions for /repo".
type fileHeading struct {
	line  int
	title string
}

// matchFileHeading returns the title carried by a heading line, if it names a *.md file.
func matchFileHeading(line string) (string, bool) {
	m := fileHeadingPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func findFileHeadings(doc markdown.Document) []fileHeading {
	var headings []fileHeading
	for _, h := range doc.Headings {
		title, ok := matchFileHeading(strings.TrimSpace("# " + h.Text))
		if !ok {
			continue
		}
		headings = append(headings, fileHeading{line: h.Line, title: title})
	}
	return headings
}

func isSpeakerHeading(line string, speakers map[string]struct{}) bool {
	m := speakerHeadingPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return false
	}
	_, ok := speakers[strings.ToLower(strings.TrimSpace(m[1]))]
	return ok
}

// ExtractFileSections lifts every section introduced by a file heading out of
// text. A section runs to the </INSTRUCTIONS> that closes its instructions
// region; without a region it runs to the next file heading or conversation
// speaker heading. Lines inside fenced code never end a section.
func ExtractFileSections(text string, meta note.Metadata, format Formatter) (Result, Trace) {
	lines := markdown.Lines(text)
	doc := markdown.Parse(text)
	headings := findFileHeadings(doc)
	if len(headings) == 0 {
		return Result{Body: strings.TrimSpace(text)}, Trace{}
	}

	headingLines := make(map[int]struct{}, len(headings))
	for _, h := range headings {
		headingLines[h.line] = struct{}{}
	}
	speakers := meta.Speakers()
	lifted := make([]bool, len(lines))
	sections := make([]Section, 0, len(headings))

	for _, h := range headings {
		end := sectionEnd(lines, h.line, doc.FencedRanges, headingLines, speakers)
		content := strings.TrimSpace(strings.Join(lines[h.line+1:end], "\n"))
		sections = append(sections, Section{Title: h.title, Content: format(content)})
		for i := h.line; i < end; i++ {
			lifted[i] = true
		}
	}

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if !lifted[i] {
			kept = append(kept, line)
		}
	}
	return Result{
		Body:     strings.TrimSpace(strings.Join(kept, "\n")),
		Sections: sections,
	}, Trace{FileSections: len(sections)}
}

// sectionEnd returns the exclusive end line of the section whose heading is at start.
func sectionEnd(lines []string, start int, fenced markdown.Ranges, headingLines map[int]struct{}, speakers map[string]struct{}) int {
	end := start + 1
	inside := false
	for end < len(lines) {
		if fenced.Contains(end) {
			end++
			continue
		}
		candidate := strings.TrimSpace(lines[end])

		if openInstructions.MatchString(candidate) {
			inside = true
			end++
			continue
		}
		if inside && closeInstructions.MatchString(candidate) {
			return end + 1
		}

		if !inside && candidate != "" && end > start+1 {
			if _, ok := headingLines[end]; ok {
				break
			}
			if isSpeakerHeading(candidate, speakers) {
				break
			}
		}
		end++
	}
	return end
}
