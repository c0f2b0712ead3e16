package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/yt-scribe/internal/metrics"
	"github.com/yegors/yt-scribe/internal/storage/sqlite"
	"github.com/yegors/yt-scribe/internal/transcription"
	"github.com/yegors/yt-scribe/internal/youtube"
	"github.com/yegors/yt-scribe/pkg/logger"
)

const (
	maxRequestBytes     = 64 * 1024
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Transcriber runs the transcription pipeline
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error)
}

// HistoryReader reads stored transcriptions
type HistoryReader interface {
	GetTranscript(id string) (*sqlite.TranscriptRecord, error)
	GetRecentTranscripts(limit int) ([]*sqlite.TranscriptRecord, error)
	GetTranscriptsByVideo(videoID string, limit int) ([]*sqlite.TranscriptRecord, error)
}

var (
	_ Transcriber   = (*transcription.Service)(nil)
	_ HistoryReader = (*sqlite.TranscriptStorage)(nil)
)

// TranscribeRequest is the body of POST /transcribe
type TranscribeRequest struct {
	URL        string `json:"url"`
	Timestamps *bool  `json:"timestamps,omitempty"`
}

// TranscribeResponse is the plain-text success body
type TranscribeResponse struct {
	Result string `json:"result"`
}

// TimestampedResponse is the success body when timestamps are embedded
type TimestampedResponse struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler serves the HTTP endpoints
type Handler struct {
	transcriber Transcriber
	history     HistoryReader // nil when history is disabled
	metrics     *metrics.Metrics
	logger      *logger.Logger
}

// NewHandler creates a new handler. history may be nil.
func NewHandler(transcriber Transcriber, history HistoryReader, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		transcriber: transcriber,
		history:     history,
		metrics:     m,
		logger:      log.Named("api-handler"),
	}
}

// Home answers liveness probes
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "yt-scribe is running")
}

// GetHealth returns service status
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"history": h.history != nil,
		"time":    time.Now().UTC(),
	})
}

// Transcribe handles POST /transcribe
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		if rec := recover(); rec != nil {
			h.metrics.ObserveRequest(http.StatusInternalServerError, time.Since(start))
			panic(rec)
		}
		h.metrics.ObserveRequest(status, time.Since(start))
	}()

	log := h.logger.WithRequestID(middleware.GetReqID(r.Context()))

	var req TranscribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		status = http.StatusBadRequest
		writeError(w, status, "Invalid JSON body")
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		status = http.StatusBadRequest
		writeError(w, status, "No YouTube URL provided")
		return
	}

	videoID, ok := youtube.ExtractID(req.URL)
	if !ok {
		status = http.StatusBadRequest
		writeError(w, status, "Invalid YouTube URL")
		return
	}

	log.Info("Transcription requested", logger.String("video_id", videoID))

	resp, err := h.transcriber.Transcribe(r.Context(), transcription.Request{
		URL:        req.URL,
		VideoID:    videoID,
		Timestamps: req.Timestamps,
	})
	if err != nil {
		switch {
		case errors.Is(err, transcription.ErrInvalidInput):
			status = http.StatusBadRequest
			writeError(w, status, "Invalid YouTube URL")
		case errors.Is(err, youtube.ErrNotFound):
			status = http.StatusNotFound
			log.Info("No transcript available", logger.String("video_id", videoID), logger.Error(err))
			writeError(w, status, "No transcript available for this video")
		default:
			status = http.StatusInternalServerError
			log.Error("Transcription failed", logger.String("video_id", videoID), logger.Error(err))
			writeError(w, status, "An unexpected error occurred")
		}
		return
	}

	if resp.ID != "" {
		w.Header().Set("X-Transcript-ID", resp.ID)
	}

	if resp.Timestamps {
		writeJSON(w, status, TimestampedResponse{Original: resp.Original, Improved: resp.Improved})
		return
	}
	writeJSON(w, status, TranscribeResponse{Result: resp.Improved})
}

// GetTranscriptions lists recent transcriptions
func (h *Handler) GetTranscriptions(w http.ResponseWriter, r *http.Request) {
	if !h.requireHistory(w) {
		return
	}

	records, err := h.history.GetRecentTranscripts(parseLimit(r))
	if err != nil {
		h.logger.Error("Failed to list transcriptions", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list transcriptions")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

// GetTranscriptionByID returns one stored transcription
func (h *Handler) GetTranscriptionByID(w http.ResponseWriter, r *http.Request) {
	if !h.requireHistory(w) {
		return
	}

	record, err := h.history.GetTranscript(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transcription not found")
			return
		}
		h.logger.Error("Failed to get transcription", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get transcription")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// GetTranscriptionsByVideo lists stored transcriptions of one video
func (h *Handler) GetTranscriptionsByVideo(w http.ResponseWriter, r *http.Request) {
	if !h.requireHistory(w) {
		return
	}

	records, err := h.history.GetTranscriptsByVideo(chi.URLParam(r, "videoId"), parseLimit(r))
	if err != nil {
		h.logger.Error("Failed to list transcriptions by video", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list transcriptions")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (h *Handler) requireHistory(w http.ResponseWriter) bool {
	if h.history == nil {
		writeError(w, http.StatusNotFound, "Transcription history is disabled")
		return false
	}
	return true
}

func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func nonNil(records []*sqlite.TranscriptRecord) []*sqlite.TranscriptRecord {
	if records == nil {
		return []*sqlite.TranscriptRecord{}
	}
	return records
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
