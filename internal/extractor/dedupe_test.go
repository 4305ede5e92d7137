package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	sections := []Section{
		{Title: "AGENTS.md", Content: "## Skills\n- a"},
		{Title: "  agents.MD ", Content: "## Skills   \n- a\n"},
		{Title: "AGENTS.md", Content: "## Skills\n- b"},
		{Title: "PROMPT.md", Content: "one\n\n\n\ntwo"},
		{Title: "PROMPT.md", Content: "one\n\ntwo"},
	}

	got := Dedupe(sections)
	assert.Equal(t, []Section{sections[0], sections[2], sections[3]}, got)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}

func TestSection_KeyAndID(t *testing.T) {
	a := Section{Title: "Straße.md", Content: "x \n"}
	b := Section{Title: "STRASSE.md", Content: "x"}
	assert.Equal(t, a.Key(), b.Key(), "titles are case folded")
	assert.Equal(t, a.ID(), b.ID())
	assert.Len(t, a.ID(), 16)

	c := Section{Title: "Straße.md", Content: "y"}
	assert.NotEqual(t, a.ID(), c.ID())
}
