package chunker

import (
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/yt-scribe/internal/tokenizer"
)

// oneTokenPerWord charges every word (with its trailing space) exactly one token
var oneTokenPerWord = tokenizer.CounterFunc(func(string) int { return 1 })

// runeCounter charges one token per rune, trailing space included
var runeCounter = tokenizer.CounterFunc(utf8.RuneCountInString)

func TestSplit_Empty(t *testing.T) {
	c := New(oneTokenPerWord)
	assert.Empty(t, c.Split("", 10))
	assert.Empty(t, c.Split("   \n\t ", 10))
}

func TestSplit_FitsInOneChunk(t *testing.T) {
	c := New(oneTokenPerWord)
	got := c.Split("never gonna give you up", 10)
	assert.Equal(t, []string{"never gonna give you up"}, got)
}

func TestSplit_TriggeringWordStartsNextChunk(t *testing.T) {
	c := New(oneTokenPerWord)
	got := c.Split("a b c d e f g", 3)
	assert.Equal(t, []string{"a b c", "d e f", "g"}, got)
}

func TestSplit_NormalisesWhitespace(t *testing.T) {
	c := New(oneTokenPerWord)
	got := c.Split("  one\ttwo\n\nthree   four ", 2)
	assert.Equal(t, []string{"one two", "three four"}, got)
}

func TestSplit_OversizedWordStandsAlone(t *testing.T) {
	c := New(runeCounter)
	// "xx " costs 3, "enormousword " costs 13
	got := c.Split("xx enormousword xx", 6)
	require.Equal(t, []string{"xx", "enormousword", "xx"}, got)
}

func TestSplit_OversizedFirstWordProducesNoEmptyChunk(t *testing.T) {
	c := New(runeCounter)
	got := c.Split("enormousword a", 4)
	require.Equal(t, []string{"enormousword", "a"}, got)
	for _, chunk := range got {
		assert.NotEmpty(t, chunk)
	}
}

func TestSplit_DefaultBudget(t *testing.T) {
	c := New(oneTokenPerWord)
	words := make([]string, DefaultMaxTokens+1)
	for i := range words {
		words[i] = "w"
	}
	got := c.Split(strings.Join(words, " "), 0)
	require.Len(t, got, 2)
	assert.Equal(t, "w", got[1])
}

func randomText(r *rand.Rand, words int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	parts := make([]string, words)
	for i := range parts {
		n := 1 + r.Intn(14)
		b := make([]byte, n)
		for j := range b {
			b[j] = letters[r.Intn(len(letters))]
		}
		parts[i] = string(b)
	}
	return strings.Join(parts, strings.Repeat(" ", 1+r.Intn(2)))
}

func TestSplit_PreservesWordSequence(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	c := New(runeCounter)

	for i := 0; i < 200; i++ {
		text := randomText(r, r.Intn(300))
		budget := 1 + r.Intn(60)

		chunks := c.Split(text, budget)
		assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(chunks, Separator)),
			"budget=%d", budget)
	}
}

func TestSplit_RespectsBudget(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	c := New(runeCounter)

	for i := 0; i < 200; i++ {
		text := randomText(r, 1+r.Intn(300))
		budget := 1 + r.Intn(60)

		for _, chunk := range c.Split(text, budget) {
			if strings.Contains(chunk, " ") {
				assert.LessOrEqual(t, c.Tokens(chunk), budget, "chunk %q", chunk)
			}
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	text := randomText(r, 1000)

	tk, err := tokenizer.New("gpt-4")
	require.NoError(t, err)
	c := New(tk)

	first := c.Split(text, 50)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, c.Split(text, 50))
	}
	for _, chunk := range first {
		if strings.Contains(chunk, " ") {
			assert.LessOrEqual(t, c.Tokens(chunk), 50)
		}
	}
}
