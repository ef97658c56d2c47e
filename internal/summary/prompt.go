package summary

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// indexTail asks templated replies to close with the sections the parser
// indexes, so every meeting gets a summary and action items.
const indexTail = `

Finally, always end with:
**SUMMARY**: A short paragraph on what the meeting covered
**ACTION ITEMS**: Each as - [Assignee]: Task description (Due: date if mentioned)
**DECISIONS**: Any decisions reached`

const namesNote = `

Make sure to use the actual participant names provided and incorporate any clarifications given.`

// SystemPrompt returns the system message for the context's meeting type
func SystemPrompt(c types.EnhancedContext) string {
	return templates.Get(templates.MeetingType(c.MeetingType)).SystemPrompt
}

// BuildPrompt assembles the user prompt: participants and clarifications
// first, then the transcript with speaker labels replaced by known names,
// then the meeting type's instructions.
func BuildPrompt(t types.Transcript, c types.EnhancedContext) string {
	tmpl := templates.Get(templates.MeetingType(c.MeetingType))

	var b strings.Builder
	b.WriteString(c.Render())
	if tmpl.Type != templates.General {
		fmt.Fprintf(&b, "MEETING TYPE: %s\n\n", tmpl.Name)
	}
	b.WriteString("MEETING TRANSCRIPT:\n")
	b.WriteString(t.WithNames(c.SpeakerNames).LabeledText())
	b.WriteString("\n\n---\n\n")
	b.WriteString(tmpl.Instructions)
	if tmpl.Type != templates.General {
		b.WriteString(indexTail)
	}
	b.WriteString(namesNote)
	return b.String()
}

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionKeyPoints
	sectionActionItems
	sectionDecisions
)

// headerFor reports which section a line opens, if any
func headerFor(line string) (section, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	marked := strings.Contains(line, "**") || strings.Contains(line, "#")
	switch {
	case strings.Contains(lower, "summary") && (marked || strings.HasPrefix(lower, "summary")):
		return sectionSummary, true
	case strings.Contains(lower, "key point") || strings.Contains(lower, "key discussion"):
		return sectionKeyPoints, true
	case strings.Contains(lower, "action item"):
		return sectionActionItems, true
	case strings.Contains(lower, "decision") && (marked || strings.HasPrefix(lower, "decision")):
		return sectionDecisions, true
	}
	return sectionNone, false
}

// extraHeaderRe matches a line that opens a template section: a markdown
// heading or a line that starts with bold text, optionally followed by
// inline content ("**Timeline**: end of May").
var extraHeaderRe = regexp.MustCompile(`^\s*(?:#{1,6}\s+\**([^*]+?)\**\s*:?\s*$|\*\*([^*]+?):?\*\*:?\s*(.*)$)`)

var (
	assigneeRe = regexp.MustCompile(`^\[?([^\]:\[]+)\]?\s*:\s*(.+)`)
	dueRe      = regexp.MustCompile(`(?i)\(Due:?\s*([^)]+)\)`)
	numberedRe = regexp.MustCompile(`^\d+[.)]\s+`)
)

// ParseResponse splits an LLM reply into summary sections. When no summary
// header is found the whole reply becomes the summary text.
func ParseResponse(text string) *types.Summary {
	sections := map[section][]string{}
	var extra []types.Section
	current := sectionNone
	inExtra := false
	for _, line := range strings.Split(text, "\n") {
		m := extraHeaderRe.FindStringSubmatch(line)
		if s, ok := headerFor(line); ok {
			current, inExtra = s, false
			if m != nil && strings.TrimSpace(m[3]) != "" {
				sections[current] = append(sections[current], m[3])
			}
			continue
		}
		if m != nil {
			title := strings.TrimSpace(m[1] + m[2])
			sec := types.Section{Title: strings.Trim(title, "[]"), Lines: []string{}}
			if rest := strings.TrimSpace(m[3]); rest != "" {
				sec.Lines = append(sec.Lines, rest)
			}
			extra = append(extra, sec)
			current, inExtra = sectionNone, true
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch {
		case inExtra:
			last := &extra[len(extra)-1]
			last.Lines = append(last.Lines, strings.TrimSpace(line))
		case current != sectionNone:
			sections[current] = append(sections[current], line)
		}
	}

	summary := &types.Summary{
		Text:        strings.TrimSpace(strings.Join(sections[sectionSummary], "\n")),
		KeyPoints:   bullets(sections[sectionKeyPoints]),
		ActionItems: parseActionItems(sections[sectionActionItems]),
		Decisions:   bullets(sections[sectionDecisions]),
		Sections:    extra,
		Raw:         text,
	}
	if summary.Text == "" {
		summary.Text = strings.TrimSpace(text)
	}
	return summary
}

func stripBullet(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "•-* ")
	line = numberedRe.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

func bullets(lines []string) []string {
	out := []string{}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if item := stripBullet(line); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseActionItems(lines []string) []types.ActionItem {
	items := []types.ActionItem{}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		line = stripBullet(line)
		if line == "" {
			continue
		}

		item := types.ActionItem{Description: line, Status: "pending"}
		if m := assigneeRe.FindStringSubmatch(line); m != nil {
			item.Assignee = strings.Trim(strings.TrimSpace(m[1]), "*")
			item.Description = strings.TrimSpace(m[2])
		}
		if m := dueRe.FindStringSubmatch(item.Description); m != nil {
			item.DueDate = strings.TrimSpace(m[1])
			item.Description = strings.TrimSpace(strings.Replace(item.Description, m[0], "", 1))
		}
		if item.Description != "" {
			items = append(items, item)
		}
	}
	return items
}
