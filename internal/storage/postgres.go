package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS meetings (
    meeting_id   TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    source_type  TEXT NOT NULL,
    gdrive_url   TEXT NOT NULL DEFAULT '',
    local_path   TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL,
    completed_at TIMESTAMPTZ NOT NULL,
    duration     DOUBLE PRECISION NOT NULL DEFAULT 0,
    word_count   INTEGER NOT NULL DEFAULT 0,
    speakers     TEXT[] NOT NULL DEFAULT '{}',
    summary      TEXT NOT NULL DEFAULT '',
    action_items INTEGER NOT NULL DEFAULT 0,
    transcript   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_meetings_created_at ON meetings (created_at DESC);
`

// PostgresHistory keeps meeting history in PostgreSQL for shared server
// deployments.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

// NewPostgresHistory connects with a pooled connection and creates the
// meetings table if needed.
func NewPostgresHistory(ctx context.Context, dsn string) (*PostgresHistory, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PostgresHistory{pool: pool}, nil
}

// SaveMeeting upserts the meeting's history entry
func (p *PostgresHistory) SaveMeeting(ctx context.Context, m *types.Meeting) error {
	rec := recordFromMeeting(m)
	query := `
        INSERT INTO meetings (
            meeting_id, name, source_type, gdrive_url, local_path, created_at, completed_at,
            duration, word_count, speakers, summary, action_items, transcript
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (meeting_id) DO UPDATE SET
            name = EXCLUDED.name,
            gdrive_url = EXCLUDED.gdrive_url,
            local_path = EXCLUDED.local_path,
            completed_at = EXCLUDED.completed_at,
            speakers = EXCLUDED.speakers,
            summary = EXCLUDED.summary,
            action_items = EXCLUDED.action_items,
            transcript = EXCLUDED.transcript
    `
	_, err := p.pool.Exec(ctx, query,
		rec.ID, rec.Name, rec.Source, rec.GDriveURL, rec.LocalPath, rec.CreatedAt, rec.CompletedAt,
		rec.Duration, rec.WordCount, rec.Speakers, rec.Summary, rec.ActionItems, namedTranscript(m),
	)
	if err != nil {
		return fmt.Errorf("failed to save meeting: %w", err)
	}
	return nil
}

const pgSelect = `
        SELECT meeting_id, name, source_type, gdrive_url, local_path, created_at, completed_at,
               duration, word_count, speakers, summary, action_items
        FROM meetings`

// GetMeeting fetches one meeting by ID
func (p *PostgresHistory) GetMeeting(ctx context.Context, id string) (*MeetingRecord, error) {
	rows, err := p.pool.Query(ctx, pgSelect+` WHERE meeting_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanPgRecord)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &rec, nil
}

// ListMeetings returns the most recent meetings first
func (p *PostgresHistory) ListMeetings(ctx context.Context, limit int) ([]MeetingRecord, error) {
	rows, err := p.pool.Query(ctx, pgSelect+` ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanPgRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to scan meetings: %w", err)
	}
	return records, nil
}

// SearchMeetings ranks meetings by full-text match on the summary and
// transcript, falling back to a name match.
func (p *PostgresHistory) SearchMeetings(ctx context.Context, query string, limit int) ([]MeetingRecord, error) {
	q := pgSelect + `
        WHERE to_tsvector('simple', summary || ' ' || transcript) @@ plainto_tsquery('simple', $1)
           OR name ILIKE '%' || $1 || '%'
        ORDER BY ts_rank(to_tsvector('simple', summary || ' ' || transcript), plainto_tsquery('simple', $1)) DESC,
                 created_at DESC
        LIMIT $2`
	rows, err := p.pool.Query(ctx, q, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search meetings: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanPgRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to scan search result: %w", err)
	}
	return records, nil
}

// DeleteMeeting removes the history entry
func (p *PostgresHistory) DeleteMeeting(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM meetings WHERE meeting_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

// Close closes the connection pool
func (p *PostgresHistory) Close() error {
	p.pool.Close()
	return nil
}

func scanPgRecord(row pgx.CollectableRow) (MeetingRecord, error) {
	var rec MeetingRecord
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Source,
		&rec.GDriveURL,
		&rec.LocalPath,
		&rec.CreatedAt,
		&rec.CompletedAt,
		&rec.Duration,
		&rec.WordCount,
		&rec.Speakers,
		&rec.Summary,
		&rec.ActionItems,
	)
	return rec, err
}
