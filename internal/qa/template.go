package qa

import (
	"strings"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// TemplateRule asks the meeting template's own questions. A prompt with
// triggers is asked only when one occurs, and quotes the first sentence
// that mentions it.
type TemplateRule struct {
	Template templates.Template
}

func (TemplateRule) Kind() Kind { return TemplateFocus }

func (r TemplateRule) Scan(t types.Transcript) []Question {
	var out []Question
	ss := sentences(t)
	for _, p := range r.Template.QAPrompts {
		if len(p.Triggers) == 0 {
			out = append(out, Question{Kind: TemplateFocus, Prompt: p.Prompt})
			continue
		}
		if s, ok := firstMention(ss, p.Triggers); ok {
			out = append(out, Question{
				Kind:           TemplateFocus,
				Prompt:         p.Prompt,
				Context:        s.text,
				RelatedSpeaker: s.speaker,
			})
		}
	}
	return out
}

func firstMention(ss []sentence, words []string) (sentence, bool) {
	for _, s := range ss {
		lower := strings.ToLower(s.text)
		for _, w := range words {
			if strings.Contains(lower, w) {
				return s, true
			}
		}
	}
	return sentence{}, false
}
