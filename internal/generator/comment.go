package generator

import (
	"strings"
	"unicode/utf8"

	"memento/internal/extractor"
	"memento/internal/markdown"
	"memento/internal/note"
)

// Marker opens every generated comment so an existing comment can be found
// and updated instead of duplicated.
const Marker = "<!-- git-memento-note-comment -->"

// DefaultMaxBodyLength stays under GitHub's 65536 character comment limit.
const DefaultMaxBodyLength = 65000

const (
	noteSummary       = "The note attached to the commit"
	sectionsHeading   = "### Markdown files"
	sectionsOmitted   = "\n\n_Nested markdown sections omitted due to GitHub comment size limits._"
	truncationReserve = "\n\n_Note truncated due to GitHub comment size limits._\n\n</details>"
	noSessionNotice   = "No AI session was attached to this commit."
)

// Outcome says which rung of the size ladder produced a body.
type Outcome string

const (
	OutcomeFull            Outcome = "full"
	OutcomeSectionsOmitted Outcome = "sections_omitted"
	OutcomeTruncated       Outcome = "truncated"
)

// Options configures a Renderer.
type Options struct {
	// MaxBodyLength is the character budget for the body. Zero or less means
	// DefaultMaxBodyLength.
	MaxBodyLength int
	// ReflowProviders is passed through to the extractor.
	ReflowProviders []string
}

// Renderer turns session notes into comment bodies. It holds only its
// options and is safe for concurrent use.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	if opts.MaxBodyLength <= 0 {
		opts.MaxBodyLength = DefaultMaxBodyLength
	}
	return &Renderer{opts: opts}
}

// Rendering is the result of rendering one note.
type Rendering struct {
	Body     string
	Outcome  Outcome
	Metadata note.Metadata
	Sections []extractor.Section
	Trace    extractor.Trace
}

// BuildBody renders note into a comment body of at most maxBodyLength characters.
func BuildBody(noteText string, maxBodyLength int) string {
	return (&Renderer{opts: Options{MaxBodyLength: maxBodyLength}}).Render(noteText).Body
}

// BuildNoSessionBody is the body posted for a commit without a session note.
func BuildNoSessionBody() string {
	return Marker + "\n" + noSessionNotice
}

// Render renders a note.
func (r *Renderer) Render(noteText string) Rendering {
	return r.RenderWithReport(noteText, nil)
}

// RenderWithReport renders a note and records each stage in report, which may be nil.
func (r *Renderer) RenderWithReport(noteText string, report *Report) Rendering {
	stage := report.BeginStage("parse_metadata")
	meta := note.Parse(noteText)
	report.EndStage(stage, "ok", map[string]float64{
		"has_session_id": boolCounter(meta.SessionID != ""),
		"has_committer":  boolCounter(meta.Committer != ""),
	}, []string{"provider=" + meta.Provider})

	stage = report.BeginStage("extract_sections")
	result, trace := extractor.Extract(noteText, meta, extractor.Options{ReflowProviders: r.opts.ReflowProviders})
	report.EndStage(stage, "ok", map[string]float64{
		"file_sections":          float64(trace.FileSections),
		"top_level_sections":     float64(trace.TopLevelSections),
		"duplicates_dropped":     float64(trace.DuplicatesDropped),
		"malformed_instructions": float64(trace.MalformedInstructions),
	}, nil)
	if trace.MalformedInstructions > 0 {
		report.AddSignal("malformed_instructions", "extract_sections", "info",
			"Unterminated <INSTRUCTIONS> regions were left in the note body.", float64(trace.MalformedInstructions))
	}

	stage = report.BeginStage("assemble")
	noteBody := result.Body
	if noteBody == "" {
		noteBody = strings.TrimSpace(markdown.NormalizeLineEndings(noteText))
	}
	body, outcome := assemble(heading(meta), noteBody, result.Sections, r.opts.MaxBodyLength)
	report.EndStage(stage, "ok", map[string]float64{
		"body_length":     float64(utf8.RuneCountInString(body)),
		"max_body_length": float64(r.opts.MaxBodyLength),
	}, []string{"outcome=" + string(outcome)})

	switch outcome {
	case OutcomeSectionsOmitted:
		report.AddSignal("sections_omitted", "assemble", "warning",
			"Markdown file sections were dropped to fit the size limit.", float64(len(result.Sections)))
	case OutcomeTruncated:
		report.AddSignal("note_truncated", "assemble", "warning",
			"The note body was truncated to fit the size limit.", float64(r.opts.MaxBodyLength))
	}
	for _, s := range result.Sections {
		report.AddSection(s)
	}

	return Rendering{
		Body:     body,
		Outcome:  outcome,
		Metadata: meta,
		Sections: result.Sections,
		Trace:    trace,
	}
}

func heading(meta note.Metadata) string {
	return Marker + "\nThis commit has a prompt attached to it created with agent " + meta.AgentID() + ":"
}

func boolCounter(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
