package events

import "time"

// EventType names a kind of pipeline notification
type EventType string

const (
	StateChanged EventType = "state_changed"

	RecordingStarted EventType = "recording_started"
	RecordingStopped EventType = "recording_stopped"

	ProcessingStarted EventType = "processing_started"

	TranscriptionStarted   EventType = "transcription_started"
	TranscriptionCompleted EventType = "transcription_completed"
	DiarizationStarted     EventType = "diarization_started"
	DiarizationCompleted   EventType = "diarization_completed"
	AlignmentCompleted     EventType = "alignment_completed"
	CollaboratorRetry      EventType = "collaborator_retry"

	QAStarted         EventType = "qa_started"
	QAQuestionUpdated EventType = "qa_question_updated"
	QACompleted       EventType = "qa_completed"
	SpeakerRenamed    EventType = "speaker_renamed"

	SummaryStarted   EventType = "summary_started"
	SummaryCompleted EventType = "summary_completed"

	RunCompleted EventType = "run_completed"
	RunFailed    EventType = "run_failed"
	RunCancelled EventType = "run_cancelled"
)

// Event is a status notification published on the Bus.
type Event struct {
	Type  EventType      `json:"type"`
	RunID string         `json:"run_id"`
	State string         `json:"state,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
	Time  time.Time      `json:"time"`
	Seq   uint64         `json:"seq"`
}

// New builds an event with the given payload. Time and Seq are set on publish.
func New(t EventType, runID string, data map[string]any) Event {
	return Event{Type: t, RunID: runID, Data: data}
}
