package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yegors/yt-scribe/internal/metrics"
	"github.com/yegors/yt-scribe/internal/storage/sqlite"
	"github.com/yegors/yt-scribe/internal/youtube"
	"github.com/yegors/yt-scribe/pkg/logger"
)

// Service runs the caption → chunk → completion pipeline for one video at a time
type Service struct {
	source      TranscriptSource
	coordinator *Coordinator
	history     HistoryStore // nil disables history
	config      Config
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewService creates the pipeline service. history may be nil.
func NewService(
	source TranscriptSource,
	coordinator *Coordinator,
	history HistoryStore,
	config Config,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		source:      source,
		coordinator: coordinator,
		history:     history,
		config:      config,
		metrics:     m,
		logger:      log.Named("transcription"),
	}
}

// Transcribe fetches the captions of req.VideoID, flattens them and returns the
// improved text. Caption errors abort the request and wrap youtube.ErrNotFound
// or youtube.ErrNetwork; completion errors are embedded in the improved text.
func (s *Service) Transcribe(ctx context.Context, req Request) (*Response, error) {
	if req.VideoID == "" {
		return nil, fmt.Errorf("%w: missing video ID", ErrInvalidInput)
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	withTimestamps := s.config.Timestamps
	if req.Timestamps != nil {
		withTimestamps = *req.Timestamps
	}

	log := s.logger.With(logger.String("video_id", req.VideoID))
	start := time.Now()

	entries, err := s.source.Fetch(ctx, req.VideoID)
	if err != nil {
		switch {
		case errors.Is(err, youtube.ErrNotFound):
			s.metrics.ObserveFetch("not_found")
		default:
			s.metrics.ObserveFetch("error")
		}
		return nil, fmt.Errorf("failed to fetch transcript for %s: %w", req.VideoID, err)
	}
	s.metrics.ObserveFetch("ok")

	original := youtube.Flatten(entries, withTimestamps)
	log.Debug("Transcript flattened",
		logger.Int("entries", len(entries)),
		logger.Int("chars", len(original)),
		logger.Bool("timestamps", withTimestamps))

	outcome := s.coordinator.Improve(ctx, original, s.config.MaxTokens)

	resp := &Response{
		VideoID:      req.VideoID,
		Timestamps:   withTimestamps,
		Original:     original,
		Improved:     outcome.Text,
		Chunks:       outcome.Chunks,
		FailedChunks: outcome.Failed,
		Duration:     time.Since(start),
	}

	if s.history != nil {
		record := &sqlite.TranscriptRecord{
			VideoID:      req.VideoID,
			URL:          req.URL,
			Timestamps:   withTimestamps,
			Original:     resp.Original,
			Improved:     resp.Improved,
			ChunkCount:   resp.Chunks,
			FailedChunks: resp.FailedChunks,
			DurationMs:   resp.Duration.Milliseconds(),
		}
		// History is an audit trail; losing a record must not fail the request
		if err := s.history.StoreTranscript(record); err != nil {
			log.Error("Failed to store transcript history", logger.Error(err))
		} else {
			resp.ID = record.ID
		}
	}

	log.Info("Transcription completed",
		logger.Int("chunks", resp.Chunks),
		logger.Int("failed_chunks", resp.FailedChunks),
		logger.Duration("duration", resp.Duration))

	return resp, nil
}
