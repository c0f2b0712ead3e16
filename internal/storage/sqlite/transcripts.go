package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/yt-scribe/pkg/logger"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// timeLayout is fixed-width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const transcriptColumns = `id, video_id, url, timestamps, original, improved, chunk_count, failed_chunks, duration_ms, created_at`

// TranscriptStorage handles storage of transcription history
type TranscriptStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewTranscriptStorage creates the transcription history storage and its schema
func NewTranscriptStorage(db *sql.DB, log *logger.Logger) (*TranscriptStorage, error) {
	storage := &TranscriptStorage{
		db:     db,
		logger: log.Named("sqlite-transcripts"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize transcript storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *TranscriptStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			video_id TEXT NOT NULL,
			url TEXT NOT NULL,
			timestamps INTEGER NOT NULL DEFAULT 0,
			original TEXT NOT NULL,
			improved TEXT NOT NULL,
			chunk_count INTEGER NOT NULL,
			failed_chunks INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create transcripts table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_transcripts_video_id ON transcripts(video_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at)`,
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create transcript index: %w", err)
		}
	}

	return nil
}

// StoreTranscript inserts a record, assigning ID and CreatedAt when empty
func (s *TranscriptStorage) StoreTranscript(record *TranscriptRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO transcripts (`+transcriptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.VideoID,
		record.URL,
		record.Timestamps,
		record.Original,
		record.Improved,
		record.ChunkCount,
		record.FailedChunks,
		record.DurationMs,
		record.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	s.logger.Debug("Stored transcript",
		logger.String("id", record.ID),
		logger.String("video_id", record.VideoID))

	return nil
}

// GetTranscript returns the record with the given ID
func (s *TranscriptStorage) GetTranscript(id string) (*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+transcriptColumns+` FROM transcripts WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	records, err := s.scanTranscriptRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// GetRecentTranscripts returns the newest records first
func (s *TranscriptStorage) GetRecentTranscripts(limit int) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+transcriptColumns+`
		FROM transcripts
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent transcripts: %w", err)
	}
	defer rows.Close()

	return s.scanTranscriptRows(rows)
}

// GetTranscriptsByVideo returns records for one video, newest first
func (s *TranscriptStorage) GetTranscriptsByVideo(videoID string, limit int) ([]*TranscriptRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+transcriptColumns+`
		FROM transcripts
		WHERE video_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		videoID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts by video: %w", err)
	}
	defer rows.Close()

	return s.scanTranscriptRows(rows)
}

// scanTranscriptRows scans database rows into TranscriptRecord structs
func (s *TranscriptStorage) scanTranscriptRows(rows *sql.Rows) ([]*TranscriptRecord, error) {
	var records []*TranscriptRecord
	for rows.Next() {
		var record TranscriptRecord
		var createdAt string

		if err := rows.Scan(
			&record.ID,
			&record.VideoID,
			&record.URL,
			&record.Timestamps,
			&record.Original,
			&record.Improved,
			&record.ChunkCount,
			&record.FailedChunks,
			&record.DurationMs,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transcripts: %w", err)
	}

	return records, nil
}
