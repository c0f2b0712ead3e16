package chunker

import (
	"strings"

	"github.com/yegors/yt-scribe/internal/tokenizer"
)

// DefaultMaxTokens is the token budget used when none is given
const DefaultMaxTokens = 16000

// Separator joins words inside a chunk and chunks inside a transcript
const Separator = " "

// TextChunker splits text into token-bounded chunks without breaking words
type TextChunker struct {
	counter tokenizer.Counter
}

// New creates a chunker that measures words with counter
func New(counter tokenizer.Counter) *TextChunker {
	return &TextChunker{counter: counter}
}

// Split partitions text into ordered chunks whose token cost stays within maxTokens.
// Each word costs Count(word + Separator). A word that alone exceeds the budget
// is emitted as its own chunk. maxTokens <= 0 selects DefaultMaxTokens.
func (c *TextChunker) Split(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentTokens := 0

	for _, word := range words {
		wordTokens := c.counter.Count(word + Separator)

		// The triggering word opens the next chunk
		if currentTokens+wordTokens > maxTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, Separator))
			current = current[:0]
			currentTokens = 0
		}

		current = append(current, word)
		currentTokens += wordTokens
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, Separator))
	}

	return chunks
}

// Tokens returns the budgeted cost of a chunk, the same way Split accounts for it
func (c *TextChunker) Tokens(chunk string) int {
	total := 0
	for _, word := range strings.Fields(chunk) {
		total += c.counter.Count(word + Separator)
	}
	return total
}
