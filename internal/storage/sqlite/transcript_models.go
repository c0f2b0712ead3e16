package sqlite

import "time"

// TranscriptRecord is one completed transcription kept for auditing
type TranscriptRecord struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"video_id"`
	URL          string    `json:"url"`
	Timestamps   bool      `json:"timestamps"`
	Original     string    `json:"original"`
	Improved     string    `json:"improved"`
	ChunkCount   int       `json:"chunk_count"`
	FailedChunks int       `json:"failed_chunks"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}
