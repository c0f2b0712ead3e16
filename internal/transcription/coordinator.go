package transcription

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yegors/yt-scribe/internal/completion"
	"github.com/yegors/yt-scribe/internal/metrics"
	"github.com/yegors/yt-scribe/pkg/logger"
)

// Coordinator fans chunks out to the completion provider and reassembles the answers
type Coordinator struct {
	splitter       Splitter
	corrector      Corrector
	maxConcurrency int
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// NewCoordinator creates a coordinator. maxConcurrency bounds in-flight
// completion calls; 0 dispatches every chunk at once.
func NewCoordinator(splitter Splitter, corrector Corrector, maxConcurrency int, m *metrics.Metrics, log *logger.Logger) *Coordinator {
	return &Coordinator{
		splitter:       splitter,
		corrector:      corrector,
		maxConcurrency: maxConcurrency,
		metrics:        m,
		logger:         log.Named("coordinator"),
	}
}

// FailureMarker is the text substituted for a chunk whose completion failed
func FailureMarker(index int, err error) string {
	return fmt.Sprintf("[chunk %d failed: %v]", index, err)
}

// Improve splits text, corrects every chunk concurrently and joins the results
// in chunk order. A failed chunk never cancels the others; its FailureMarker
// takes its place in the output.
func (c *Coordinator) Improve(ctx context.Context, text string, maxTokens int) Outcome {
	chunks := c.splitter.Split(text, maxTokens)
	if len(chunks) == 0 {
		return Outcome{}
	}

	c.metrics.ObserveChunkCount(len(chunks))
	c.logger.Debug("Dispatching chunks",
		logger.Int("chunks", len(chunks)),
		logger.Int("max_tokens", maxTokens),
		logger.Int("max_concurrency", c.maxConcurrency))

	start := time.Now()

	// Each goroutine owns results[i]
	results := make([]completion.Result, len(chunks))

	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			res := c.corrector.Correct(ctx, chunk)
			res.Index = i
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	parts := make([]string, len(results))
	failed := 0
	for i, res := range results {
		c.metrics.ObserveChunk(res.Failed())
		if res.Failed() {
			failed++
			c.logger.Warn("Chunk completion failed",
				logger.Int("chunk", i),
				logger.Int("chunks", len(chunks)),
				logger.Error(res.Err))
			parts[i] = FailureMarker(i, res.Err)
			continue
		}
		parts[i] = res.Text
	}

	c.logger.Info("Chunks processed",
		logger.Int("chunks", len(chunks)),
		logger.Int("failed", failed),
		logger.Duration("duration", time.Since(start)))

	return Outcome{
		Text:   strings.Join(parts, " "),
		Chunks: len(chunks),
		Failed: failed,
	}
}
