package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// LocalStorage handles saving meeting notes to the local filesystem
type LocalStorage struct {
	outputDir string
	now       func() time.Time
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// SaveMeeting writes the notes and metadata to a dated directory and records
// the notes path on m.
func (ls *LocalStorage) SaveMeeting(ctx context.Context, m *types.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create dated directory structure: outputs/2025/01/23/
	now := ls.now()
	dateDir := filepath.Join(ls.outputDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	if err := os.MkdirAll(dateDir, 0755); err != nil {
		return types.NewError(types.IOError, "save meeting", fmt.Errorf("failed to create date directory: %w", err))
	}

	// Generate filename: 20250123_143022_weekly_sync.md
	timestamp := now.Format("20060102_150405")
	baseFilename := fmt.Sprintf("%s_%s", timestamp, sanitizeFilename(m.Name))

	notesPath := filepath.Join(dateDir, baseFilename+".md")
	metaPath := filepath.Join(dateDir, baseFilename+"_meta.json")

	if err := os.WriteFile(notesPath, []byte(RenderNotes(m)), 0644); err != nil {
		return types.NewError(types.IOError, "save meeting", fmt.Errorf("failed to save notes: %w", err))
	}
	m.LocalPath = notesPath

	metadata := map[string]interface{}{
		"meeting_id":       m.ID,
		"name":             m.Name,
		"source":           m.Source,
		"audio_path":       m.AudioPath,
		"duration_seconds": m.Transcript.Duration(),
		"word_count":       m.WordCount(),
		"language":         m.Transcript.Language,
		"speakers":         m.Transcript.Speakers,
		"speaker_names":    m.Context.SpeakerNames,
		"clarifications":   m.Context.Clarifications,
		"summary":          m.Summary,
		"segments":         m.Transcript.Segments,
		"model_used":       m.Summary.Model,
		"created_at":       m.CreatedAt,
		"completed_at":     m.CompletedAt,
		"local_path":       notesPath,
		"gdrive_url":       m.GDriveURL,
	}

	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return types.NewError(types.IOError, "save meeting", fmt.Errorf("failed to save metadata: %w", err))
	}

	return nil
}

// sanitizeFilename replaces characters that are invalid in file names
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "meeting"
	}
	result := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	if len(result) > 100 {
		result = result[:100] // Limit length
	}
	return result
}
