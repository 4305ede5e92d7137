package extractor

import (
	"strings"

	"memento/internal/markdown"
	"memento/internal/note"
)

// Options configures an extraction run.
type Options struct {
	// ReflowProviders selects the providers whose sections go through
	// ReflowSection. Nil means DefaultReflowProviders.
	ReflowProviders []string
}

// Extract runs the three extraction passes over a note in their fixed order:
// file-heading sections, then top-level instructions regions in what is
// left, then deduplication across both.
func Extract(text string, meta note.Metadata, opts Options) (Result, Trace) {
	providers := opts.ReflowProviders
	if providers == nil {
		providers = DefaultReflowProviders
	}
	format := NewFormatter(meta.Provider, providers)
	normalized := strings.TrimSpace(markdown.NormalizeLineEndings(text))

	files, fileTrace := ExtractFileSections(normalized, meta, format)
	topLevel, topTrace := ExtractTopLevelSections(files, TopLevelFallbackTitle(meta), format)
	deduped := Dedupe(topLevel.Sections)

	return Result{Body: topLevel.Body, Sections: deduped}, Trace{
		FileSections:          fileTrace.FileSections,
		TopLevelSections:      topTrace.TopLevelSections,
		DuplicatesDropped:     len(topLevel.Sections) - len(deduped),
		MalformedInstructions: topTrace.MalformedInstructions,
	}
}
