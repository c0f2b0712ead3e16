package transcription

import (
	"context"

	"github.com/yegors/yt-scribe/internal/completion"
	"github.com/yegors/yt-scribe/internal/storage/sqlite"
	"github.com/yegors/yt-scribe/internal/youtube"
)

// Splitter partitions text into token-bounded chunks
type Splitter interface {
	Split(text string, maxTokens int) []string
}

// Corrector improves a single chunk; failures are carried in the Result
type Corrector interface {
	Correct(ctx context.Context, chunk string) completion.Result
}

// TranscriptSource fetches the caption entries of a video
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string) ([]youtube.TranscriptEntry, error)
}

// HistoryStore persists finished transcriptions
type HistoryStore interface {
	StoreTranscript(record *sqlite.TranscriptRecord) error
}

// Ensure the concrete types implement the interfaces
var (
	_ Corrector        = (*completion.Client)(nil)
	_ TranscriptSource = (*youtube.Client)(nil)
	_ HistoryStore     = (*sqlite.TranscriptStorage)(nil)
)
