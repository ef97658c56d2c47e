package pipeline

import (
	"context"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// AudioSource records meeting audio. StartCapture fails with a
// DeviceUnavailable error; StopCapture fails with an IOError.
type AudioSource interface {
	StartCapture(ctx context.Context) (types.CaptureHandle, error)
	StopCapture(ctx context.Context, h types.CaptureHandle) (types.AudioRef, error)
}

// Transcriber turns audio into timestamped text. Missing files are reported
// as IOError, inference failures as ModelError.
type Transcriber interface {
	Transcribe(ctx context.Context, audio types.AudioRef) (*types.TranscriptionResult, error)
}

// Diarizer partitions audio into speaker turns.
type Diarizer interface {
	Diarize(ctx context.Context, audio types.AudioRef) ([]types.SpeakerSegment, error)
}

// Summarizer produces the meeting summary. CheckAvailability returns nil
// when the backend can take requests.
type Summarizer interface {
	Summarize(ctx context.Context, t types.Transcript, c types.EnhancedContext) (*types.Summary, error)
	CheckAvailability(ctx context.Context) error
}

// SnippetProvider cuts a playable clip out of the run's audio.
type SnippetProvider interface {
	Extract(ctx context.Context, audio types.AudioRef, span types.TimeSpan) ([]byte, error)
}

// Sink receives every completed meeting. Sinks run in order and may record
// where they stored the meeting on m.
type Sink interface {
	SaveMeeting(ctx context.Context, m *types.Meeting) error
}
