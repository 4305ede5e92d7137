package generator

import (
	"strings"
	"unicode/utf8"

	"memento/internal/extractor"
	"memento/internal/markdown"
)

// assemble builds the body and degrades it until it fits maxLen characters:
// first every section is dropped, then the note itself is truncated. Sections
// are all rendered or none are.
func assemble(head, noteBody string, sections []extractor.Section, maxLen int) (string, Outcome) {
	open := head + "\n\n<details>\n<summary>" + noteSummary + "</summary>\n\n"
	main := open + noteBody + "\n\n</details>"

	body := main + renderSections(sections)
	if length(body) <= maxLen {
		return body, OutcomeFull
	}

	body = main + sectionsOmitted
	if length(body) <= maxLen {
		return body, OutcomeSectionsOmitted
	}

	available := maxLen - length(open) - length(truncationReserve)
	if available < 0 {
		available = 0
	}
	return open + truncate(noteBody, available) + truncationReserve, OutcomeTruncated
}

func renderSections(sections []extractor.Section) string {
	if len(sections) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(sections))
	for _, s := range sections {
		var b strings.Builder
		b.WriteString("<details>\n<summary>")
		b.WriteString(markdown.EscapeHTML(s.Title))
		b.WriteString("</summary>\n\n~~~markdown\n")
		b.WriteString(s.Content)
		b.WriteString("\n~~~\n\n</details>")
		blocks = append(blocks, b.String())
	}
	return "\n\n" + sectionsHeading + "\n\n" + strings.Join(blocks, "\n\n")
}

// length counts characters the way GitHub does, in code points rather than bytes.
func length(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
