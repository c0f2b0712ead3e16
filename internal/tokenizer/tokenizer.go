// Package tokenizer counts model tokens for text fragments.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Counter reports how many model tokens a fragment consumes
type Counter interface {
	Count(fragment string) int
}

// CounterFunc adapts a plain function to Counter
type CounterFunc func(fragment string) int

// Count implements Counter
func (f CounterFunc) Count(fragment string) int {
	return f(fragment)
}

var loaderOnce sync.Once

// Tiktoken counts tokens with the BPE vocabulary of an OpenAI model
type Tiktoken struct {
	model string
	enc   *tiktoken.Tiktoken
}

// New returns a counter for the vocabulary used by model (for example "gpt-4").
// Vocabularies are embedded, so no network access happens here or later.
func New(model string) (*Tiktoken, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer for model %s: %w", model, err)
	}
	return &Tiktoken{model: model, enc: enc}, nil
}

// Count implements Counter
func (t *Tiktoken) Count(fragment string) int {
	if fragment == "" {
		return 0
	}
	return len(t.enc.Encode(fragment, nil, nil))
}

// Model returns the model whose vocabulary is used
func (t *Tiktoken) Model() string {
	return t.model
}
