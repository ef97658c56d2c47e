package qa

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

var (
	// ErrNotFound is returned for an unknown question ID.
	ErrNotFound = errors.New("question not found")
	// ErrInvalidState is returned when the operation is not allowed in the
	// session's current state.
	ErrInvalidState = errors.New("invalid session state")
	// ErrIncompleteSession is returned by Complete while questions are open.
	ErrIncompleteSession = errors.New("session has open questions")
)

// State is the lifecycle state of a session
type State string

const (
	Collecting State = "collecting"
	Completed  State = "completed"
)

// Progress counts questions by status
type Progress struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Answered int `json:"answered"`
	Skipped  int `json:"skipped"`
}

// Session owns one run's clarification questions and their answers.
type Session struct {
	mu        sync.Mutex
	mode      Mode
	state     State
	questions []Question
	index     map[string]int
}

// NewSession keeps the most important candidates, up to the mode's limit,
// ordered by kind priority. Ties keep detection order.
func NewSession(mode Mode, candidates []Question, limits Limits) *Session {
	qs := make([]Question, len(candidates))
	copy(qs, candidates)
	sort.SliceStable(qs, func(i, j int) bool {
		return qs[i].Kind.Priority() < qs[j].Kind.Priority()
	})
	if n := limits.forMode(mode); len(qs) > n {
		qs = qs[:n]
	}

	s := &Session{
		mode:      mode,
		state:     Collecting,
		questions: qs,
		index:     make(map[string]int, len(qs)),
	}
	for i := range s.questions {
		s.questions[i].Status = StatusOpen
		s.questions[i].Answer = ""
		s.index[s.questions[i].ID] = i
	}
	return s
}

// Answer records text as the answer to question id. A blank answer counts
// as a skip.
func (s *Session) Answer(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.lookup(id)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		q.Status = StatusSkipped
		q.Answer = ""
		return nil
	}
	q.Status = StatusAnswered
	q.Answer = text
	return nil
}

// Skip marks question id as skipped
func (s *Session) Skip(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, err := s.lookup(id)
	if err != nil {
		return err
	}
	q.Status = StatusSkipped
	q.Answer = ""
	return nil
}

// SkipAll skips every open question and completes the session. Answers
// already given are kept. It is a no-op on a completed session.
func (s *Session) SkipAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Completed {
		return nil
	}
	for i := range s.questions {
		if s.questions[i].Status == StatusOpen {
			s.questions[i].Status = StatusSkipped
		}
	}
	s.state = Completed
	return nil
}

// Complete finishes the session once no question is open. Completing a
// completed session succeeds.
func (s *Session) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Completed {
		return nil
	}
	for _, q := range s.questions {
		if q.Status == StatusOpen {
			return ErrIncompleteSession
		}
	}
	s.state = Completed
	return nil
}

// BuildEnhancedContext folds every answered question into the context handed
// to the summarizer. Answers to SpeakerIdentity questions also populate the
// speaker name mapping.
func (s *Session) BuildEnhancedContext() (types.EnhancedContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Completed {
		return types.EnhancedContext{}, ErrInvalidState
	}

	ctx := types.EnhancedContext{SpeakerNames: make(map[string]string)}
	for _, q := range s.questions {
		if q.Status != StatusAnswered {
			continue
		}
		ctx.Clarifications = append(ctx.Clarifications, types.Clarification{
			QuestionID:     q.ID,
			Kind:           string(q.Kind),
			Prompt:         q.Prompt,
			Context:        q.Context,
			Answer:         q.Answer,
			RelatedSpeaker: q.RelatedSpeaker,
		})
		if q.Kind == SpeakerIdentity && q.RelatedSpeaker != "" {
			ctx.SpeakerNames[q.RelatedSpeaker] = q.Answer
		}
	}
	return ctx, nil
}

// Questions returns a copy of the session's questions
func (s *Session) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Question returns a copy of question id
func (s *Session) Question(id string) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return s.questions[i], nil
}

// State returns the session state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the session mode
func (s *Session) Mode() Mode {
	return s.mode
}

// Progress counts questions by status
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Progress{Total: len(s.questions)}
	for _, q := range s.questions {
		switch q.Status {
		case StatusOpen:
			p.Open++
		case StatusAnswered:
			p.Answered++
		case StatusSkipped:
			p.Skipped++
		}
	}
	return p
}

// lookup must be called with s.mu held.
func (s *Session) lookup(id string) (*Question, error) {
	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.state != Collecting {
		return nil, ErrInvalidState
	}
	return &s.questions[i], nil
}
