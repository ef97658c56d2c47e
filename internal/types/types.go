package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Source type constants
const (
	SourceRecording = "recording"
	SourceUpload    = "upload"
	SourceGDrive    = "gdrive"
	SourceFile      = "file"
)

// UnknownSpeaker labels text that no diarized speaker can be attributed to.
const UnknownSpeaker = "UNKNOWN"

// TimeSpan is a half-open interval in seconds from the start of the audio.
type TimeSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the span in seconds
func (s TimeSpan) Duration() float64 {
	return s.End - s.Start
}

// Overlap returns the length of the intersection of s and o, or 0.
func (s TimeSpan) Overlap(o TimeSpan) float64 {
	lo := max(s.Start, o.Start)
	hi := min(s.End, o.End)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Contains reports whether t lies inside [Start, End).
func (s TimeSpan) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Valid reports whether the span satisfies 0 <= Start < End.
func (s TimeSpan) Valid() bool {
	return s.Start >= 0 && s.Start < s.End
}

func (s TimeSpan) String() string {
	return fmt.Sprintf("[%.2f-%.2f]", s.Start, s.End)
}

// SpeakerSegment is one diarized speaker turn
type SpeakerSegment struct {
	Span    TimeSpan `json:"span"`
	Speaker string   `json:"speaker"`
}

// RawTranscriptSegment is one timestamped span of transcribed text
type RawTranscriptSegment struct {
	Span TimeSpan `json:"span"`
	Text string   `json:"text"`
}

// AttributedSegment is transcribed text with the speaker it was attributed to
type AttributedSegment struct {
	Span    TimeSpan `json:"span"`
	Text    string   `json:"text"`
	Speaker string   `json:"speaker"`
}

// Transcript is the speaker-attributed transcript of one meeting.
type Transcript struct {
	Segments []AttributedSegment `json:"segments"`
	Speakers []string            `json:"speakers"`
	Language string              `json:"language"`
}

// NewTranscript builds a transcript and derives its sorted speaker set.
func NewTranscript(segments []AttributedSegment, language string) Transcript {
	return Transcript{
		Segments: segments,
		Speakers: speakerSet(segments),
		Language: language,
	}
}

// Relabel returns a copy of t with every segment spoken by from attributed to to.
func (t Transcript) Relabel(from, to string) Transcript {
	segments := make([]AttributedSegment, len(t.Segments))
	copy(segments, t.Segments)
	for i := range segments {
		if segments[i].Speaker == from {
			segments[i].Speaker = to
		}
	}
	return NewTranscript(segments, t.Language)
}

// WithNames replaces speaker labels using names in a single pass, so a name
// that equals another label is not renamed again. Blank names are ignored.
func (t Transcript) WithNames(names map[string]string) Transcript {
	segments := make([]AttributedSegment, len(t.Segments))
	for i, seg := range t.Segments {
		if name := names[seg.Speaker]; name != "" {
			seg.Speaker = name
		}
		segments[i] = seg
	}
	return NewTranscript(segments, t.Language)
}

// SegmentsBy returns the segments attributed to speaker, in transcript order.
func (t Transcript) SegmentsBy(speaker string) []AttributedSegment {
	var out []AttributedSegment
	for _, seg := range t.Segments {
		if seg.Speaker == speaker {
			out = append(out, seg)
		}
	}
	return out
}

// LabeledText renders the transcript as "[speaker]: text" lines, merging
// consecutive segments from the same speaker into one turn.
func (t Transcript) LabeledText() string {
	var b strings.Builder
	current := ""
	for i, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if i == 0 || seg.Speaker != current || b.Len() == 0 {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%s]: %s", seg.Speaker, text)
			current = seg.Speaker
			continue
		}
		b.WriteString(" ")
		b.WriteString(text)
	}
	return b.String()
}

// Text returns the plain transcript text without speaker labels
func (t Transcript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Duration returns the end time of the last segment
func (t Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].Span.End
}

func speakerSet(segments []AttributedSegment) []string {
	seen := make(map[string]bool)
	speakers := []string{}
	for _, seg := range segments {
		if !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			speakers = append(speakers, seg.Speaker)
		}
	}
	sort.Strings(speakers)
	return speakers
}

// AudioRef points at a finished audio file
type AudioRef struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration,omitempty"`
}

// CaptureHandle identifies an in-progress recording
type CaptureHandle struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	StartedAt time.Time `json:"started_at"`
}

// TranscriptionResult represents the output from the speech-to-text collaborator
type TranscriptionResult struct {
	Segments []RawTranscriptSegment `json:"segments"`
	Language string                 `json:"language"`
	Duration float64                `json:"duration"`
}

// ActionItem is a task extracted by the summarizer
type ActionItem struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Status      string `json:"status"`
}

// Summary is the summarizer's structured output
type Summary struct {
	Text        string       `json:"summary"`
	KeyPoints   []string     `json:"key_points"`
	ActionItems []ActionItem `json:"action_items"`
	Decisions   []string     `json:"decisions"`
	// Sections holds template-specific parts of the reply, in reply order.
	Sections []Section `json:"sections,omitempty"`
	Raw      string    `json:"raw,omitempty"`
	Model    string    `json:"model,omitempty"`
}

// Section is one titled block of a summary
type Section struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// Meeting is the finished record of a completed run, handed to sinks.
type Meeting struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Source      string          `json:"source"`
	AudioPath   string          `json:"audio_path"`
	Transcript  Transcript      `json:"transcript"`
	Context     EnhancedContext `json:"context"`
	Summary     Summary         `json:"summary"`
	MeetingType string          `json:"meeting_type,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt time.Time       `json:"completed_at"`
	LocalPath   string          `json:"local_path,omitempty"`
	GDriveURL   string          `json:"gdrive_url,omitempty"`
}

// WordCount counts whitespace separated words in the transcript
func (m *Meeting) WordCount() int {
	return len(strings.Fields(m.Transcript.Text()))
}
