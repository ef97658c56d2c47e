package types

import (
	"fmt"
	"sort"
	"strings"
)

// Clarification is one answered question folded into the summarizer input.
type Clarification struct {
	QuestionID     string `json:"question_id"`
	Kind           string `json:"kind"`
	Prompt         string `json:"prompt"`
	Context        string `json:"context"`
	Answer         string `json:"answer"`
	RelatedSpeaker string `json:"related_speaker,omitempty"`
}

// EnhancedContext carries human-provided clarifications to the summarizer.
// SpeakerNames maps placeholder labels to the names given for them; the
// transcript itself is left unchanged.
type EnhancedContext struct {
	Clarifications []Clarification   `json:"clarifications"`
	SpeakerNames   map[string]string `json:"speaker_names"`
	// MeetingType selects the summary template; empty means general.
	MeetingType string `json:"meeting_type,omitempty"`
}

// Empty reports whether the context carries nothing for the summarizer
func (c EnhancedContext) Empty() bool {
	return len(c.Clarifications) == 0 && len(c.SpeakerNames) == 0
}

// Participants returns the speaker names in label order
func (c EnhancedContext) Participants() []string {
	labels := make([]string, 0, len(c.SpeakerNames))
	for label := range c.SpeakerNames {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, fmt.Sprintf("%s (%s)", c.SpeakerNames[label], label))
	}
	return names
}

// Render formats the context as prompt sections. It returns "" when empty.
func (c EnhancedContext) Render() string {
	if c.Empty() {
		return ""
	}

	var b strings.Builder
	if participants := c.Participants(); len(participants) > 0 {
		b.WriteString("MEETING PARTICIPANTS:\n")
		for _, p := range participants {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	if len(c.Clarifications) > 0 {
		b.WriteString("CLARIFICATIONS PROVIDED:\n")
		for _, cl := range c.Clarifications {
			fmt.Fprintf(&b, "- %s: %s\n", cl.Prompt, cl.Answer)
			if cl.Context != "" {
				fmt.Fprintf(&b, "  (context: %q)\n", cl.Context)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
