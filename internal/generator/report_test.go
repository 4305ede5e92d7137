package generator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWithReport_RecordsStagesAndSections(t *testing.T) {
	note := baseHeader + "\n### Codex\n\n# AGENTS.md\n\n<INSTRUCTIONS>\n## Skills - a - b\n</INSTRUCTIONS>\n\n<INSTRUCTIONS>\nnever closed"
	report := NewReport("refs/notes/commits@abc123")

	r := NewRenderer(Options{})
	rendering := r.RenderWithReport(note, report)
	report.Finalize()

	require.Len(t, report.Stages, 3)
	assert.Equal(t, "parse_metadata", report.Stages[0].Name)
	assert.Equal(t, "extract_sections", report.Stages[1].Name)
	assert.Equal(t, "assemble", report.Stages[2].Name)
	assert.Equal(t, float64(1), report.Stages[1].Counters["file_sections"])
	assert.Equal(t, []string{"outcome=full"}, report.Stages[2].Notes)

	require.Len(t, report.Sections, 1)
	assert.Equal(t, rendering.Sections[0].ID(), report.Sections[0].ID)
	assert.Equal(t, "AGENTS.md", report.Sections[0].Title)

	assert.True(t, report.HasSignal("malformed_instructions"))
	assert.False(t, report.HasSignal("note_truncated"))
	assert.Equal(t, 1, report.Summary.SignalsBySeverity["info"])
	assert.Equal(t, 3, report.Summary.StageCount)
	assert.NoError(t, report.Validate())
}

func TestRenderWithReport_DegradationSignals(t *testing.T) {
	note := baseHeader + "\n# AGENTS.md\n\n<INSTRUCTIONS>\n" + strings.Repeat("rule ", 80) + "\n</INSTRUCTIONS>\n\nclosing words"
	full := NewRenderer(Options{}).Render(note)
	require.Equal(t, OutcomeFull, full.Outcome)

	omitted := NewReport("")
	NewRenderer(Options{MaxBodyLength: len([]rune(full.Body)) - 1}).RenderWithReport(note, omitted)
	assert.True(t, omitted.HasSignal("sections_omitted"))
	assert.False(t, omitted.HasSignal("note_truncated"))

	truncated := NewReport("")
	NewRenderer(Options{MaxBodyLength: 260}).RenderWithReport(note, truncated)
	assert.True(t, truncated.HasSignal("note_truncated"))
	truncated.Finalize()
	assert.Equal(t, 1, truncated.Summary.SignalsBySeverity["warning"])
	assert.NoError(t, truncated.Validate())
}

func TestReport_NilIsSafe(t *testing.T) {
	var report *Report
	rendering := NewRenderer(Options{}).RenderWithReport("hello", report)
	assert.Equal(t, OutcomeFull, rendering.Outcome)
	assert.False(t, report.HasSignal("anything"))
	assert.NoError(t, report.Save(afero.NewMemMapFs(), "report.json"))
	assert.Error(t, report.Validate())
}

func TestReport_SignalsSortedBySeverity(t *testing.T) {
	report := NewReport("")
	report.AddSignal("b_info", "assemble", "info", "info signal", 0)
	report.AddSignal("a_warn", "assemble", "WARNING", "warning signal", 0)
	report.AddSignal("c_crit", "assemble", "critical", "critical signal", 0)
	report.AddSignal("", "assemble", "info", "dropped: no code", 0)
	report.Finalize()

	require.Len(t, report.Signals, 3)
	assert.Equal(t, "c_crit", report.Signals[0].Code)
	assert.Equal(t, "a_warn", report.Signals[1].Code)
	assert.Equal(t, "b_info", report.Signals[2].Code)
}

func TestReport_ValidateRejectsBadData(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Report)
	}{
		{"unknown severity", func(r *Report) {
			r.Signals = append(r.Signals, ReportSignal{Code: "x", Stage: "assemble", Severity: "fatal", Message: "m"})
		}},
		{"unknown stage", func(r *Report) {
			r.Stages = append(r.Stages, StageMetric{Name: "publish", Status: "ok", StartedAt: "a", FinishedAt: "b"})
		}},
		{"bad run id", func(r *Report) { r.RunID = "not-a-ulid" }},
		{"bad section id", func(r *Report) {
			r.Sections = append(r.Sections, SectionMetric{ID: "XYZ", Title: "A.md"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewReport("")
			report.Finalize()
			require.NoError(t, report.Validate())

			tt.mutate(report)
			assert.Error(t, report.Validate())
		})
	}
}

func TestReport_Save(t *testing.T) {
	fs := afero.NewMemMapFs()
	report := NewReport("note.md")
	NewRenderer(Options{}).RenderWithReport(baseHeader+"\n# A.md\nalpha\n\n### Mandel\nok", report)

	require.NoError(t, report.Save(fs, "out/reports/render.json"))

	raw, err := afero.ReadFile(fs, "out/reports/render.json")
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Equal(t, "note.md", decoded.Source)
	assert.Equal(t, 3, decoded.Summary.StageCount)
	assert.Equal(t, 1, decoded.Summary.SectionCount)

	entries, err := afero.ReadDir(fs, "out/reports")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
