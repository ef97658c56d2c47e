package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// timeLayout keeps stored timestamps fixed-width so they sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB creates a new metadata database
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer
	db.SetMaxOpenConns(1)

	// Create table if not exists
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS meetings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		meeting_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		gdrive_url TEXT,
		local_path TEXT NOT NULL,
		created_at TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		duration REAL,
		word_count INTEGER,
		speakers TEXT,
		summary TEXT,
		action_items INTEGER,
		transcript TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_meetings_created_at ON meetings(created_at);
	CREATE INDEX IF NOT EXISTS idx_meetings_name ON meetings(name);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveMeeting stores meeting metadata, replacing an earlier entry for the
// same meeting
func (mdb *MetadataDB) SaveMeeting(ctx context.Context, m *types.Meeting) error {
	rec := recordFromMeeting(m)
	speakers, err := json.Marshal(rec.Speakers)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO meetings (meeting_id, name, source_type, gdrive_url, local_path, created_at, completed_at,
		duration, word_count, speakers, summary, action_items, transcript)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(meeting_id) DO UPDATE SET
		name = excluded.name,
		gdrive_url = excluded.gdrive_url,
		local_path = excluded.local_path,
		completed_at = excluded.completed_at,
		speakers = excluded.speakers,
		summary = excluded.summary,
		action_items = excluded.action_items,
		transcript = excluded.transcript
	`

	_, err = mdb.db.ExecContext(ctx, query, rec.ID, rec.Name, rec.Source, rec.GDriveURL, rec.LocalPath,
		rec.CreatedAt.UTC().Format(timeLayout), rec.CompletedAt.UTC().Format(timeLayout),
		rec.Duration, rec.WordCount, string(speakers), rec.Summary, rec.ActionItems, namedTranscript(m))
	if err != nil {
		return fmt.Errorf("failed to save meeting metadata: %w", err)
	}

	return nil
}

const selectColumns = `
	SELECT meeting_id, name, source_type, COALESCE(gdrive_url, ''), local_path, created_at, completed_at,
		COALESCE(duration, 0), COALESCE(word_count, 0), COALESCE(speakers, '[]'), COALESCE(summary, ''),
		COALESCE(action_items, 0)
	FROM meetings`

// GetMeeting retrieves meeting metadata by ID
func (mdb *MetadataDB) GetMeeting(ctx context.Context, id string) (*MeetingRecord, error) {
	row := mdb.db.QueryRowContext(ctx, selectColumns+` WHERE meeting_id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return rec, nil
}

// ListMeetings returns the most recent meetings first
func (mdb *MetadataDB) ListMeetings(ctx context.Context, limit int) ([]MeetingRecord, error) {
	rows, err := mdb.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	return collectRecords(rows)
}

// SearchMeetings matches query against names, summaries and transcripts
func (mdb *MetadataDB) SearchMeetings(ctx context.Context, query string, limit int) ([]MeetingRecord, error) {
	pattern := "%" + query + "%"
	rows, err := mdb.db.QueryContext(ctx, selectColumns+`
	WHERE name LIKE ? OR summary LIKE ? OR transcript LIKE ? OR speakers LIKE ?
	ORDER BY created_at DESC LIMIT ?`, pattern, pattern, pattern, pattern, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search meetings: %w", err)
	}
	return collectRecords(rows)
}

// DeleteMeeting removes the history entry. Notes on disk are kept.
func (mdb *MetadataDB) DeleteMeeting(ctx context.Context, id string) error {
	res, err := mdb.db.ExecContext(ctx, `DELETE FROM meetings WHERE meeting_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*MeetingRecord, error) {
	var (
		rec                MeetingRecord
		created, completed string
		speakers           string
	)
	err := row.Scan(&rec.ID, &rec.Name, &rec.Source, &rec.GDriveURL, &rec.LocalPath, &created, &completed,
		&rec.Duration, &rec.WordCount, &speakers, &rec.Summary, &rec.ActionItems)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)
	rec.CompletedAt, _ = time.Parse(timeLayout, completed)
	if err := json.Unmarshal([]byte(speakers), &rec.Speakers); err != nil {
		rec.Speakers = nil
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]MeetingRecord, error) {
	defer rows.Close()

	records := []MeetingRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
