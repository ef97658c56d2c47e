package qa

import (
	"fmt"
	"strings"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// Kind is the category of a clarification question
type Kind string

const (
	SpeakerIdentity    Kind = "speaker_identity"
	DateClarification  Kind = "date_clarification"
	ActionConfirmation Kind = "action_confirmation"
	UnclearOwnership   Kind = "unclear_ownership"
	MissingDetail      Kind = "missing_detail"
	AmbiguousReference Kind = "ambiguous_reference"
	AcronymExpansion   Kind = "acronym_expansion"
	// TemplateFocus questions come from the meeting template, not the text
	TemplateFocus Kind = "template_focus"
)

// priority lists kinds from most to least important
var priority = []Kind{
	SpeakerIdentity,
	DateClarification,
	ActionConfirmation,
	UnclearOwnership,
	MissingDetail,
	AmbiguousReference,
	AcronymExpansion,
	TemplateFocus,
}

// Priority returns the rank of k; lower is more important.
func (k Kind) Priority() int {
	for i, p := range priority {
		if p == k {
			return i
		}
	}
	return len(priority)
}

// Status is the answer state of a question
type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusSkipped  Status = "skipped"
)

// Question is one clarification asked of the user
type Question struct {
	ID             string          `json:"id"`
	Kind           Kind            `json:"kind"`
	Prompt         string          `json:"prompt"`
	Context        string          `json:"context"`
	RelatedSpeaker string          `json:"related_speaker,omitempty"`
	Answer         string          `json:"answer,omitempty"`
	Status         Status          `json:"status"`
	Sample         *types.TimeSpan `json:"sample,omitempty"`
}

// Mode controls how many questions a session asks
type Mode string

const (
	Quick    Mode = "quick"
	Detailed Mode = "detailed"
)

// ParseMode accepts "quick" or "detailed", case-insensitively. Empty means Quick.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Quick:
		return Quick, nil
	case Detailed:
		return Detailed, nil
	}
	return "", fmt.Errorf("unknown qa mode %q (want quick or detailed)", s)
}

// Limits caps the number of questions per mode
type Limits struct {
	Quick    int `yaml:"max_questions_quick" toml:"max_questions_quick"`
	Detailed int `yaml:"max_questions_detailed" toml:"max_questions_detailed"`
}

// DefaultLimits asks at most 5 questions in Quick mode and 10 in Detailed.
var DefaultLimits = Limits{Quick: 5, Detailed: 10}

func (l Limits) forMode(m Mode) int {
	if m == Detailed {
		if l.Detailed > 0 {
			return l.Detailed
		}
		return DefaultLimits.Detailed
	}
	if l.Quick > 0 {
		return l.Quick
	}
	return DefaultLimits.Quick
}
