package qa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/align"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// sentence is one sentence of a segment with the segment's attribution
type sentence struct {
	text    string
	speaker string
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)

func sentences(t types.Transcript) []sentence {
	var out []sentence
	for _, seg := range t.Segments {
		for _, s := range sentenceRe.FindAllString(seg.Text, -1) {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, sentence{text: s, speaker: seg.Speaker})
			}
		}
	}
	return out
}

// modal matches the verb group that marks a commitment ("will", "'ll", ...).
const modal = `(?:'ll|\s+(?:will|should|must|needs? to|has to|have to|(?:is|am|are) going to))`

var (
	actionRe    = regexp.MustCompile(`\b([A-Z][a-z]*)` + modal + `\s+([a-z][^.!?;]*)`)
	ownershipRe = regexp.MustCompile(`\b((?i:he|she|they|someone|somebody)|[A-Z][a-z]+)` + modal + `\s+[a-z]`)
	vagueRe     = regexp.MustCompile(`\b((?i:i|we|he|she|they|you|someone)|[A-Z][a-z]+)` + modal +
		`\s+(look into|follow up|handle|check|take care of|deal with|work on|figure out|sort out|fix|send|review|update|do)` +
		`(\s+(?:it|that|this|them|things|stuff|something|on (?:it|that|this)))?\s*(?:[.!?;,]|$)`)
)

// notNames are capitalized words that start sentences but never name a person.
var notNames = map[string]bool{
	"I": true, "It": true, "This": true, "That": true, "These": true, "Those": true,
	"There": true, "Here": true, "What": true, "Which": true, "Who": true, "When": true,
	"Where": true, "Why": true, "How": true, "We": true, "They": true, "He": true,
	"She": true, "You": true, "Someone": true, "Somebody": true, "Everyone": true,
	"Everybody": true, "Nobody": true, "Anyone": true, "Anybody": true, "The": true,
	"A": true, "An": true, "And": true, "But": true, "So": true, "Then": true,
	"If": true, "Maybe": true, "Also": true, "Everything": true, "Nothing": true,
	"Something": true, "Team": true, "Now": true, "Today": true,
	"Tomorrow": true, "Yes": true, "No": true, "Okay": true, "Well": true,
}

func isName(w string) bool {
	return len(w) > 1 && !notNames[w]
}

func isPronoun(w string) bool {
	switch strings.ToLower(w) {
	case "he", "she", "they", "someone", "somebody":
		return true
	}
	return false
}

// SpeakerIdentityRule asks who each placeholder-labelled speaker is.
type SpeakerIdentityRule struct {
	Sample SampleOptions
	// Placeholder matches unnamed diarization labels. Defaults to SPEAKER_\d+.
	Placeholder *regexp.Regexp
}

var placeholderRe = regexp.MustCompile(`^SPEAKER_\d+$`)

func (SpeakerIdentityRule) Kind() Kind { return SpeakerIdentity }

func (r SpeakerIdentityRule) Scan(t types.Transcript) []Question {
	re := r.Placeholder
	if re == nil {
		re = placeholderRe
	}

	var out []Question
	for _, label := range t.Speakers {
		if !re.MatchString(label) {
			continue
		}
		sample, ok := align.BestSample(t, label, r.Sample.MinSeconds, r.Sample.MaxSeconds, r.Sample.ClipSeconds)
		if !ok {
			continue
		}
		context := ""
		for _, seg := range t.SegmentsBy(label) {
			if seg.Span.Start == sample.Start {
				context = strings.TrimSpace(seg.Text)
				break
			}
		}
		out = append(out, Question{
			Kind:           SpeakerIdentity,
			Prompt:         fmt.Sprintf("Who is speaker %s?", label),
			Context:        context,
			RelatedSpeaker: label,
			Sample:         &sample,
		})
	}
	return out
}

// DateRule asks for a date when a relative time expression is used without
// an absolute date in the same sentence.
type DateRule struct{}

var (
	relativeDateRe = regexp.MustCompile(`(?i)\b(the deadline|by then|tomorrow|` +
		`next (?:week|month|quarter|year|sprint|monday|tuesday|wednesday|thursday|friday)|` +
		`this (?:week|month|quarter|weekend|monday|tuesday|wednesday|thursday|friday)|` +
		`end of (?:the )?(?:day|week|month|quarter|year|sprint)|` +
		`in (?:a few|a couple of|a|one|two|three) (?:days?|weeks?|months?)|` +
		`later this (?:week|month)|` +
		`by (?:monday|tuesday|wednesday|thursday|friday))\b`)

	months         = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	absoluteDateRe = regexp.MustCompile(`(?i)\b` + months + `\.?\s+\d{1,2}(?:st|nd|rd|th)?\b|` +
		`\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + months + `\b|` +
		`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
)

func (DateRule) Kind() Kind { return DateClarification }

func (DateRule) Scan(t types.Transcript) []Question {
	seen := make(map[string]bool)
	var out []Question
	for _, s := range sentences(t) {
		if absoluteDateRe.MatchString(s.text) {
			continue
		}
		for _, phrase := range relativeDateRe.FindAllString(s.text, -1) {
			key := strings.ToLower(phrase)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Question{
				Kind:           DateClarification,
				Prompt:         fmt.Sprintf("You mentioned '%s'. What is the specific date?", phrase),
				Context:        s.text,
				RelatedSpeaker: s.speaker,
			})
		}
	}
	return out
}

// ActionRule asks the user to confirm sentences that read like action items:
// a named assignee, or "I", followed by a modal verb.
type ActionRule struct{}

func (ActionRule) Kind() Kind { return ActionConfirmation }

func (ActionRule) Scan(t types.Transcript) []Question {
	seen := make(map[string]bool)
	var out []Question
	for _, s := range sentences(t) {
		for _, m := range actionRe.FindAllStringSubmatch(s.text, -1) {
			assignee := m[1]
			if assignee == "I" {
				assignee = s.speaker
			} else if !isName(assignee) {
				continue
			}
			action := strings.TrimRight(strings.TrimSpace(m[2]), ",")
			key := strings.ToLower(assignee + "|" + action)
			if action == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Question{
				Kind:           ActionConfirmation,
				Prompt:         fmt.Sprintf("Confirm: %s will %s?", assignee, action),
				Context:        s.text,
				RelatedSpeaker: s.speaker,
			})
		}
	}
	return out
}

// OwnershipRule asks who owns an action when its subject is a pronoun and
// several people could be meant, or a first name shared by several people.
type OwnershipRule struct{}

func (OwnershipRule) Kind() Kind { return UnclearOwnership }

func (OwnershipRule) Scan(t types.Transcript) []Question {
	people := referents(t)
	sents := sentences(t)

	seen := make(map[string]bool)
	var out []Question
	for _, s := range sents {
		for _, m := range ownershipRe.FindAllStringSubmatch(s.text, -1) {
			subject := m[1]
			var ambiguous bool
			switch {
			case isPronoun(subject):
				others := 0
				for p := range people {
					if p != s.speaker {
						others++
					}
				}
				ambiguous = others >= 2
			case isName(subject):
				matches := 0
				for p := range people {
					if p != subject && strings.Fields(p)[0] == subject {
						matches++
					}
				}
				ambiguous = matches >= 2
			}

			key := strings.ToLower(subject) + "|" + s.text
			if !ambiguous || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Question{
				Kind:           UnclearOwnership,
				Prompt:         fmt.Sprintf("Who is '%s'? Please clarify.", subject),
				Context:        s.text,
				RelatedSpeaker: s.speaker,
			})
		}
	}
	return out
}

// referents collects everyone who could be the subject of an action: every
// speaker plus every name used as an action subject.
func referents(t types.Transcript) map[string]bool {
	people := make(map[string]bool)
	for _, label := range t.Speakers {
		if label != types.UnknownSpeaker && strings.TrimSpace(label) != "" {
			people[label] = true
		}
	}
	for _, s := range sentences(t) {
		for _, m := range actionRe.FindAllStringSubmatch(s.text, -1) {
			if isName(m[1]) {
				people[m[1]] = true
			}
		}
	}
	return people
}

// MissingDetailRule flags commitments whose verb has no concrete object,
// e.g. "I'll look into it."
type MissingDetailRule struct{}

func (MissingDetailRule) Kind() Kind { return MissingDetail }

func (MissingDetailRule) Scan(t types.Transcript) []Question {
	seen := make(map[string]bool)
	var out []Question
	for _, s := range sentences(t) {
		for _, m := range vagueRe.FindAllStringSubmatch(s.text, -1) {
			subject := m[1]
			switch {
			case strings.EqualFold(subject, "i"):
				subject = s.speaker
			case strings.EqualFold(subject, "we"):
				subject = "We"
			case !isName(subject) && !isPronoun(subject) && !strings.EqualFold(subject, "you"):
				continue
			}
			phrase := m[2] + m[3]
			key := strings.ToLower(subject + "|" + phrase + "|" + s.text)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Question{
				Kind:           MissingDetail,
				Prompt:         fmt.Sprintf("%s will '%s'. Do what, specifically?", subject, phrase),
				Context:        s.text,
				RelatedSpeaker: s.speaker,
			})
		}
	}
	return out
}

// ReferenceRule flags vague noun phrases like "that thing" or "the issue".
type ReferenceRule struct{}

var vagueReferenceRe = regexp.MustCompile(`(?i)\b(that thing|this thing|the thing we discussed|` +
	`the issue|that issue|the problem|that problem|that one|the other one|that stuff|the stuff|` +
	`the usual|what we discussed|the one we talked about)\b`)

func (ReferenceRule) Kind() Kind { return AmbiguousReference }

func (ReferenceRule) Scan(t types.Transcript) []Question {
	seen := make(map[string]bool)
	var out []Question
	for _, s := range sentences(t) {
		for _, phrase := range vagueReferenceRe.FindAllString(s.text, -1) {
			key := strings.ToLower(phrase)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Question{
				Kind:           AmbiguousReference,
				Prompt:         fmt.Sprintf("What does '%s' refer to?", phrase),
				Context:        s.text,
				RelatedSpeaker: s.speaker,
			})
		}
	}
	return out
}

// AcronymRule asks for the expansion of all-caps tokens of 2-6 characters
// that the transcript never expands itself.
type AcronymRule struct{}

var (
	acronymRe = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,5}\b`)

	commonAcronyms = map[string]bool{
		"OK": true, "AM": true, "PM": true, "TV": true, "ID": true,
		"Q1": true, "Q2": true, "Q3": true, "Q4": true,
	}
	smallWords = map[string]bool{
		"of": true, "and": true, "the": true, "for": true, "a": true, "an": true,
		"to": true, "in": true, "on": true, "&": true,
	}
)

func (AcronymRule) Kind() Kind { return AcronymExpansion }

func (AcronymRule) Scan(t types.Transcript) []Question {
	full := t.Text()
	seen := make(map[string]bool)
	var out []Question
	for _, s := range sentences(t) {
		for _, acr := range acronymRe.FindAllString(s.text, -1) {
			if seen[acr] || commonAcronyms[acr] {
				continue
			}
			seen[acr] = true
			if expanded(acr, full) {
				continue
			}
			out = append(out, Question{
				Kind:           AcronymExpansion,
				Prompt:         fmt.Sprintf("What does '%s' stand for?", acr),
				Context:        s.text,
				RelatedSpeaker: s.speaker,
			})
		}
	}
	return out
}

// expanded reports whether text spells out acr, as "ACR (Words)",
// "Words (ACR)" or "ACR stands for ...".
func expanded(acr, text string) bool {
	q := regexp.QuoteMeta(acr)

	if regexp.MustCompile(`\b` + q + `\s+(?:stands for|means|is short for)\b`).MatchString(text) {
		return true
	}
	for _, m := range regexp.MustCompile(`\b` + q + `\s*\(([^)]+)\)`).FindAllStringSubmatch(text, -1) {
		if initialsMatch(strings.Fields(m[1]), acr) {
			return true
		}
	}
	for _, m := range regexp.MustCompile(`((?:[A-Za-z][\w&-]*\s+){1,8})\(` + q + `\)`).FindAllStringSubmatch(text, -1) {
		words := strings.Fields(m[1])
		for i := range words {
			if initialsMatch(words[i:], acr) {
				return true
			}
		}
	}
	return false
}

func initialsMatch(words []string, acr string) bool {
	var all, significant strings.Builder
	for _, w := range words {
		initial := strings.ToUpper(w[:1])
		all.WriteString(initial)
		if !smallWords[strings.ToLower(w)] {
			significant.WriteString(initial)
		}
	}
	letters := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, acr)
	return all.String() == letters || significant.String() == letters
}
