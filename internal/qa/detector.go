package qa

import (
	"fmt"
	"sync"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// Rule scans a transcript for one kind of ambiguity. Rules must not share
// mutable state; the Detector runs them concurrently.
type Rule interface {
	Kind() Kind
	Scan(t types.Transcript) []Question
}

// Detector runs an ordered set of rules over a transcript
type Detector struct {
	rules []Rule
}

// NewDetector creates a detector. With no rules it uses DefaultRules.
func NewDetector(rules ...Rule) *Detector {
	if len(rules) == 0 {
		rules = DefaultRules(DefaultSampleOptions)
	}
	return &Detector{rules: rules}
}

// Rules returns the detector's rules in evaluation order
func (d *Detector) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Detect returns every candidate question, grouped in rule order and
// numbered q1..qN. Extra rules run after the detector's own, for this call
// only. The same transcript always yields the same questions.
func (d *Detector) Detect(t types.Transcript, extra ...Rule) []Question {
	rules := d.rules
	if len(extra) > 0 {
		rules = append(d.Rules(), extra...)
	}
	results := make([][]Question, len(rules))

	var wg sync.WaitGroup
	for i, rule := range rules {
		wg.Add(1)
		go func(i int, rule Rule) {
			defer wg.Done()
			results[i] = rule.Scan(t)
		}(i, rule)
	}
	wg.Wait()

	var questions []Question
	for _, qs := range results {
		for _, q := range qs {
			q.ID = fmt.Sprintf("q%d", len(questions)+1)
			q.Status = StatusOpen
			q.Answer = ""
			questions = append(questions, q)
		}
	}
	return questions
}

// SampleOptions controls which audio span a SpeakerIdentity question points at
type SampleOptions struct {
	MinSeconds  float64
	MaxSeconds  float64
	ClipSeconds float64
}

// DefaultSampleOptions prefers a 2-15s turn clipped to 5s.
var DefaultSampleOptions = SampleOptions{MinSeconds: 2, MaxSeconds: 15, ClipSeconds: 5}

// DefaultRules returns the built-in rule set
func DefaultRules(sample SampleOptions) []Rule {
	return []Rule{
		SpeakerIdentityRule{Sample: sample},
		DateRule{},
		ActionRule{},
		OwnershipRule{},
		MissingDetailRule{},
		ReferenceRule{},
		AcronymRule{},
	}
}
