package note

import (
	"regexp"
	"strings"
)

// Header keys recognized at the top of a session note, each on its own
// "- Key: value" line.
const (
	KeyProvider     = "Provider"
	KeySessionID    = "Session ID"
	KeyCommitter    = "Committer"
	KeySessionTitle = "Session Title"
	KeyCapturedAt   = "Captured At (UTC)"
)

// UnknownProvider is reported when a note carries no Provider header.
const UnknownProvider = "unknown"

var headerPatterns = map[string]*regexp.Regexp{
	KeyProvider:     headerPattern(KeyProvider),
	KeySessionID:    headerPattern(KeySessionID),
	KeyCommitter:    headerPattern(KeyCommitter),
	KeySessionTitle: headerPattern(KeySessionTitle),
	KeyCapturedAt:   headerPattern(KeyCapturedAt),
}

var headingMarkers = regexp.MustCompile(`^#+\s*`)

func headerPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^- ` + regexp.QuoteMeta(key) + `:[ \t]*(.+)$`)
}

// Metadata is the structured header of a session note.
type Metadata struct {
	Provider     string `yaml:"provider" json:"provider"`
	SessionID    string `yaml:"session_id,omitempty" json:"session_id,omitempty"`
	Committer    string `yaml:"committer,omitempty" json:"committer,omitempty"`
	SessionTitle string `yaml:"session_title,omitempty" json:"session_title,omitempty"`
	CapturedAt   string `yaml:"captured_at,omitempty" json:"captured_at,omitempty"`
}

// Parse extracts the header fields from a note. Missing fields fall back to
// defaults; it never fails.
func Parse(text string) Metadata {
	meta := Metadata{
		Provider:   Lookup(text, KeyProvider),
		SessionID:  Lookup(text, KeySessionID),
		Committer:  Lookup(text, KeyCommitter),
		CapturedAt: Lookup(text, KeyCapturedAt),
	}
	if meta.Provider == "" {
		meta.Provider = UnknownProvider
	}
	meta.SessionTitle = StripHeadingMarkers(Lookup(text, KeySessionTitle))
	return meta
}

// Lookup returns the trimmed value of the first "- key: value" line in text,
// or "" when key is absent or not a recognized header key.
func Lookup(text, key string) string {
	pattern, ok := headerPatterns[key]
	if !ok {
		return ""
	}
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// StripHeadingMarkers removes leading '#' markers from a title such as
// "# AGENTS.md instructions".
func StripHeadingMarkers(value string) string {
	return strings.TrimSpace(headingMarkers.ReplaceAllString(value, ""))
}

// AgentID names the agent in the comment heading: "Provider / SessionID",
// or just the provider when the session id is unknown.
func (m Metadata) AgentID() string {
	if m.SessionID == "" {
		return m.Provider
	}
	return m.Provider + " / " + m.SessionID
}

// Speakers returns the lower-cased names whose "### Name" headings mark a
// conversation turn.
func (m Metadata) Speakers() map[string]struct{} {
	speakers := make(map[string]struct{}, 4)
	for _, name := range []string{m.Provider, m.Committer, "System", "Tool"} {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			speakers[name] = struct{}{}
		}
	}
	return speakers
}
