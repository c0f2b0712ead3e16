package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/yegors/yt-scribe/pkg/logger"
)

// DefaultSystemPrompt is the fixed instruction sent with every chunk
const DefaultSystemPrompt = "You are a helpful assistant that improves text formatting and adds punctuation. " +
	"Preserve the original meaning and wording, and keep any [MM:SS] timestamps exactly where they appear. " +
	"Return only the improved text."

// ErrEmptyResponse is reported when the provider answers without choices
var ErrEmptyResponse = errors.New("completion response contained no choices")

// Config configures the completion client
type Config struct {
	APIKey       string
	BaseURL      string // optional, for OpenAI-compatible endpoints
	Model        string
	SystemPrompt string
	Timeout      time.Duration

	// RequestsPerSecond caps outbound provider calls across all goroutines; 0 disables the cap
	RequestsPerSecond float64
}

// Result is the outcome of one completion call. Callers must check Failed
// before treating Text as usable output.
type Result struct {
	Index int
	Text  string
	Err   error
}

// Failed reports whether the call did not produce usable text
func (r Result) Failed() bool {
	return r.Err != nil
}

// Client sends single chunks to a chat completion endpoint
type Client struct {
	client       openai.Client
	model        string
	systemPrompt string
	limiter      *rate.Limiter // nil when unlimited
	logger       *logger.Logger
}

// NewClient creates a completion client. The SDK's own retries are disabled so
// each Correct call maps to exactly one provider request.
func NewClient(config Config, log *logger.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("completion client requires an API key")
	}
	if config.Model == "" {
		config.Model = "gpt-4"
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		client:       openai.NewClient(opts...),
		model:        config.Model,
		systemPrompt: config.SystemPrompt,
		limiter:      limiter,
		logger:       log.Named("completion"),
	}, nil
}

// Correct asks the model to fix punctuation and formatting of chunk. Provider
// failures are returned inside the Result, never as a panic or separate error.
func (c *Client) Correct(ctx context.Context, chunk string) Result {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	start := time.Now()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(chunk),
		},
	})
	if err != nil {
		return Result{Err: fmt.Errorf("OpenAI API error: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return Result{Err: ErrEmptyResponse}
	}

	c.logger.Debug("Chunk corrected",
		logger.String("model", c.model),
		logger.Int("input_chars", len(chunk)),
		logger.Int64("total_tokens", resp.Usage.TotalTokens),
		logger.Duration("duration", time.Since(start)))

	return Result{Text: resp.Choices[0].Message.Content}
}

// Model returns the model name requests are sent to
func (c *Client) Model() string {
	return c.model
}
