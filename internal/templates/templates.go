// Package templates describes the kinds of meeting the pipeline knows and
// how each one is clarified and summarized.
package templates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// MeetingType names a template
type MeetingType string

const (
	General       MeetingType = "general"
	Standup       MeetingType = "standup"
	OneOnOne      MeetingType = "one_on_one"
	ClientCall    MeetingType = "client_call"
	Interview     MeetingType = "interview"
	Brainstorm    MeetingType = "brainstorm"
	Review        MeetingType = "review"
	Planning      MeetingType = "planning"
	Retrospective MeetingType = "retrospective"

	// Auto picks the template from the transcript once it exists.
	Auto MeetingType = "auto"
)

// ErrUnknown is returned by Parse for a name that is not a template
var ErrUnknown = errors.New("unknown meeting template")

// minDetectScore is how many distinct keywords a type needs before Detect
// prefers it over General
const minDetectScore = 2

// QAPrompt is a question a template asks when one of its triggers appears
// in the transcript. A prompt without triggers is always asked.
type QAPrompt struct {
	Prompt   string   `json:"prompt"`
	Triggers []string `json:"triggers,omitempty"`
}

// Template shapes the clarification questions and the summary for one
// meeting type.
type Template struct {
	Type        MeetingType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Sections    []string    `json:"sections"`
	FocusOn     []string    `json:"focus_on,omitempty"`

	SystemPrompt string     `json:"-"`
	Instructions string     `json:"-"`
	Keywords     []string   `json:"-"`
	QAPrompts    []QAPrompt `json:"qa_prompts,omitempty"`
}

// All returns the built-in templates, General first
func All() []Template {
	out := make([]Template, len(builtin))
	copy(out, builtin)
	return out
}

// Get returns the template for t, or General when t is unknown
func Get(t MeetingType) Template {
	for _, tmpl := range builtin {
		if tmpl.Type == t {
			return tmpl
		}
	}
	return builtin[0]
}

// Parse accepts a template name or "auto", case-insensitively. Empty input
// returns "" so callers can apply their own default.
func Parse(s string) (MeetingType, error) {
	name := MeetingType(strings.ToLower(strings.TrimSpace(s)))
	switch name {
	case "", Auto:
		return name, nil
	}
	for _, tmpl := range builtin {
		if tmpl.Type == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknown, s)
}

// Detect guesses the meeting type by counting which template keywords occur
// in the transcript. It returns General unless some type matches at least
// two keywords; ties go to the type listed first.
func Detect(t types.Transcript) MeetingType {
	text := strings.ToLower(t.Text())

	best, bestScore := General, 0
	for _, tmpl := range builtin {
		score := 0
		for _, kw := range tmpl.Keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = tmpl.Type, score
		}
	}
	if bestScore < minDetectScore {
		return General
	}
	return best
}
