package storage

import (
	"fmt"
	"strings"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

const maxTranscriptChars = 5000

// RenderNotes formats a meeting as markdown notes. Speaker labels are
// replaced by the names gathered during clarification.
func RenderNotes(m *types.Meeting) string {
	var b strings.Builder

	title := m.Name
	if title == "" {
		title = "Meeting Notes"
	}
	fmt.Fprintf(&b, "# %s\n", title)
	fmt.Fprintf(&b, "**Date**: %s\n", m.CreatedAt.Format("2006-01-02 15:04"))
	if t := templates.MeetingType(m.MeetingType); t != "" && t != templates.General {
		fmt.Fprintf(&b, "**Type**: %s\n", templates.Get(t).Name)
	}
	if participants := m.Context.Participants(); len(participants) > 0 {
		fmt.Fprintf(&b, "**Participants**: %s\n", strings.Join(participants, ", "))
	}
	b.WriteString("\n")

	s := m.Summary
	if s.Text != "" {
		b.WriteString("## Summary\n")
		b.WriteString(s.Text + "\n\n")
	}
	for _, sec := range s.Sections {
		b.WriteString("## " + sec.Title + "\n")
		for _, line := range sec.Lines {
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	if len(s.KeyPoints) > 0 {
		b.WriteString("## Key Points\n")
		for _, p := range s.KeyPoints {
			b.WriteString("- " + p + "\n")
		}
		b.WriteString("\n")
	}
	if len(s.ActionItems) > 0 {
		b.WriteString("## Action Items\n")
		for _, item := range s.ActionItems {
			assignee := item.Assignee
			if assignee == "" {
				assignee = "Unassigned"
			}
			due := ""
			if item.DueDate != "" {
				due = " (Due: " + item.DueDate + ")"
			}
			fmt.Fprintf(&b, "- [ ] **%s**: %s%s\n", assignee, item.Description, due)
		}
		b.WriteString("\n")
	}
	if len(s.Decisions) > 0 {
		b.WriteString("## Decisions\n")
		for _, d := range s.Decisions {
			b.WriteString("- " + d + "\n")
		}
		b.WriteString("\n")
	}
	if len(m.Context.Clarifications) > 0 {
		b.WriteString("## Clarifications\n")
		for _, c := range m.Context.Clarifications {
			fmt.Fprintf(&b, "- %s %s\n", c.Prompt, c.Answer)
		}
		b.WriteString("\n")
	}

	text := namedTranscript(m)
	if text != "" {
		b.WriteString("## Full Transcript\n```\n")
		if len(text) > maxTranscriptChars {
			b.WriteString(text[:maxTranscriptChars] + "\n... (truncated)\n")
		} else {
			b.WriteString(text + "\n")
		}
		b.WriteString("```\n")
	}
	return b.String()
}

func namedTranscript(m *types.Meeting) string {
	return m.Transcript.WithNames(m.Context.SpeakerNames).LabeledText()
}
