package markdown

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// The parser carries no per-document state, so one instance serves every call.
var parser = goldmark.New().Parser()

// Heading is a heading found by the structural parse.
type Heading struct {
	Line  int    // zero-based line of the heading's first text line
	Level int    // 1 for #, 2 for ##, etc.
	Text  string // heading text without the leading markers
}

// Document is the structural view of a Markdown source that the extractors need.
type Document struct {
	// FencedRanges covers fenced and indented code blocks, fence lines included.
	FencedRanges Ranges
	Headings     []Heading
}

// Parse runs a CommonMark block parse over src. A parser failure yields an
// empty Document, so callers see "nothing recognized" rather than an error.
func Parse(src string) (doc Document) {
	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
		}
	}()

	source := []byte(src)
	root := parser.Parse(text.NewReader(source))
	idx := newLineIndex(src)

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			if r, ok := fencedRange(node, idx); ok {
				doc.FencedRanges = append(doc.FencedRanges, r)
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			lines := node.Lines()
			if lines.Len() > 0 {
				doc.FencedRanges = append(doc.FencedRanges, LineRange{
					Start: idx.lineOf(lines.At(0).Start),
					End:   idx.lineOf(lines.At(lines.Len()-1).Start) + 1,
				})
			}
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			lines := node.Lines()
			if lines.Len() == 0 {
				return ast.WalkContinue, nil
			}
			parts := make([]string, 0, lines.Len())
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				parts = append(parts, strings.TrimRight(string(seg.Value(source)), " \t\n"))
			}
			doc.Headings = append(doc.Headings, Heading{
				Line:  idx.lineOf(lines.At(0).Start),
				Level: node.Level,
				Text:  strings.TrimSpace(strings.Join(parts, "\n")),
			})
		}
		return ast.WalkContinue, nil
	})

	sort.SliceStable(doc.Headings, func(i, j int) bool {
		return doc.Headings[i].Line < doc.Headings[j].Line
	})
	return doc
}

// FencedRanges is shorthand for Parse(src).FencedRanges.
func FencedRanges(src string) Ranges {
	return Parse(src).FencedRanges
}

// fencedRange maps a fenced block back to source lines. Goldmark only keeps
// the content lines, so the opening fence is the line before the first of them
// (or the info string's line for an empty block) and the closing fence is the
// line after the last one when it is present.
func fencedRange(node *ast.FencedCodeBlock, idx lineIndex) (LineRange, bool) {
	lines := node.Lines()
	var start, end int
	switch {
	case lines.Len() > 0:
		start = idx.lineOf(lines.At(0).Start) - 1
		end = idx.lineOf(lines.At(lines.Len()-1).Start) + 1
	case node.Info != nil:
		start = idx.lineOf(node.Info.Segment.Start)
		end = start + 1
	default:
		// An empty fence without an info string holds no lines worth excluding.
		return LineRange{}, false
	}
	if start < 0 {
		start = 0
	}
	if end < idx.count() && isFenceLine(idx.line(end)) {
		end++
	}
	return LineRange{Start: start, End: end}, true
}

func isFenceLine(line string) bool {
	trimmed := strings.TrimLeft(strings.TrimSpace(line), "> ")
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

// lineIndex resolves byte offsets to zero-based line numbers.
type lineIndex struct {
	src    string
	starts []int
}

func newLineIndex(src string) lineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{src: src, starts: starts}
}

func (l lineIndex) lineOf(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
}

func (l lineIndex) count() int {
	return len(l.starts)
}

func (l lineIndex) line(n int) string {
	end := len(l.src)
	if n+1 < len(l.starts) {
		end = l.starts[n+1] - 1
	}
	return l.src[l.starts[n]:end]
}
