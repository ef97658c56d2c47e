package storage

import (
	"context"
	"errors"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// ErrMeetingNotFound is returned when no meeting has the requested ID
var ErrMeetingNotFound = errors.New("meeting not found")

// MeetingRecord is the searchable history entry for a completed meeting
type MeetingRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	LocalPath   string    `json:"local_path"`
	GDriveURL   string    `json:"gdrive_url,omitempty"`
	Duration    float64   `json:"duration"`
	WordCount   int       `json:"word_count"`
	Speakers    []string  `json:"speakers"`
	Summary     string    `json:"summary"`
	ActionItems int       `json:"action_items"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// History stores and searches completed meetings. Implementations are also
// pipeline sinks.
type History interface {
	SaveMeeting(ctx context.Context, m *types.Meeting) error
	GetMeeting(ctx context.Context, id string) (*MeetingRecord, error)
	ListMeetings(ctx context.Context, limit int) ([]MeetingRecord, error)
	SearchMeetings(ctx context.Context, query string, limit int) ([]MeetingRecord, error)
	DeleteMeeting(ctx context.Context, id string) error
	Close() error
}

func recordFromMeeting(m *types.Meeting) MeetingRecord {
	speakers := make([]string, 0, len(m.Transcript.Speakers))
	for _, s := range m.Transcript.Speakers {
		if name, ok := m.Context.SpeakerNames[s]; ok && name != "" {
			s = name
		}
		speakers = append(speakers, s)
	}
	return MeetingRecord{
		ID:          m.ID,
		Name:        m.Name,
		Source:      m.Source,
		LocalPath:   m.LocalPath,
		GDriveURL:   m.GDriveURL,
		Duration:    m.Transcript.Duration(),
		WordCount:   m.WordCount(),
		Speakers:    speakers,
		Summary:     m.Summary.Text,
		ActionItems: len(m.Summary.ActionItems),
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
