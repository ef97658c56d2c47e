package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/qa"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/templates"
	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// RunConfig describes a run to start
type RunConfig struct {
	// Name labels the meeting in outputs. Defaults to "meeting".
	Name string `json:"name"`
	// AudioPath imports an existing file. Empty means record from the
	// configured AudioSource.
	AudioPath string `json:"audio_path"`
	// Source records where the audio came from (upload, gdrive, ...).
	Source string `json:"source"`
	// Mode selects how many clarification questions are asked.
	Mode qa.Mode `json:"mode"`
	// Template picks the meeting template. "auto" chooses one from the
	// transcript.
	Template templates.MeetingType `json:"template"`
}

// ErrorInfo describes why a run failed
type ErrorInfo struct {
	Kind    types.ErrorKind `json:"kind"`
	Message string          `json:"message"`
	Stage   State           `json:"stage"`
}

// Run is the controller's record of one meeting being processed. All fields
// are guarded by mu and only the Controller touches them.
type Run struct {
	mu sync.Mutex

	id    string
	cfg   RunConfig
	state State

	// meetingType is cfg.Template with auto resolved once a transcript exists
	meetingType templates.MeetingType

	capture    *types.CaptureHandle
	audio      types.AudioRef
	transcript *types.Transcript
	session    *qa.Session
	enhanced   *types.EnhancedContext
	summary    *types.Summary
	meeting    *types.Meeting
	err        *ErrorInfo

	summaryScheduled bool
	autoSkip         *time.Timer

	createdAt time.Time
	updatedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Snapshot is a read-only copy of a run's state
type Snapshot struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Source     string                 `json:"source"`
	State      State                  `json:"state"`
	Audio      types.AudioRef         `json:"audio"`
	Transcript *types.Transcript      `json:"transcript,omitempty"`
	QAMode     qa.Mode                `json:"qa_mode"`
	Template   templates.MeetingType  `json:"template"`
	QAState    qa.State               `json:"qa_state,omitempty"`
	Questions  []qa.Question          `json:"questions,omitempty"`
	Progress   *qa.Progress           `json:"progress,omitempty"`
	Context    *types.EnhancedContext `json:"context,omitempty"`
	Summary    *types.Summary         `json:"summary,omitempty"`
	Meeting    *types.Meeting         `json:"meeting,omitempty"`
	Error      *ErrorInfo             `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// snapshotLocked must be called with r.mu held.
func (r *Run) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:        r.id,
		Name:      r.cfg.Name,
		Source:    r.cfg.Source,
		State:     r.state,
		Audio:     r.audio,
		QAMode:    r.cfg.Mode,
		Template:  r.meetingType,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
	if r.capture != nil && s.Audio.Path == "" {
		s.Audio.Path = r.capture.Path
	}
	if r.transcript != nil {
		t := *r.transcript
		s.Transcript = &t
	}
	if r.session != nil {
		p := r.session.Progress()
		s.QAState = r.session.State()
		s.Questions = r.session.Questions()
		s.Progress = &p
	}
	if r.enhanced != nil {
		c := *r.enhanced
		s.Context = &c
	}
	if r.summary != nil {
		sum := *r.summary
		s.Summary = &sum
	}
	if r.meeting != nil {
		m := *r.meeting
		s.Meeting = &m
	}
	if r.err != nil {
		e := *r.err
		s.Error = &e
	}
	return s
}

// stopAutoSkipLocked must be called with r.mu held.
func (r *Run) stopAutoSkipLocked() {
	if r.autoSkip != nil {
		r.autoSkip.Stop()
		r.autoSkip = nil
	}
}
