package transcription

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned for requests without a usable video ID
var ErrInvalidInput = errors.New("invalid transcription request")

// Request asks for one video to be transcribed
type Request struct {
	URL     string
	VideoID string
	// Timestamps overrides the configured timestamp mode when set
	Timestamps *bool
}

// Response is the result of one transcription
type Response struct {
	ID           string        // history record ID, empty when history is disabled
	VideoID      string
	Timestamps   bool
	Original     string
	Improved     string
	Chunks       int
	FailedChunks int
	Duration     time.Duration
}

// Outcome is the aggregated result of improving one text
type Outcome struct {
	Text   string
	Chunks int
	Failed int
}

// Config represents the configuration for the transcription pipeline
type Config struct {
	MaxTokens  int
	Timestamps bool // default timestamp mode
	Timeout    time.Duration
}
