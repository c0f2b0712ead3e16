package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiktoken_Count(t *testing.T) {
	tk, err := New("gpt-4")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", tk.Model())

	assert.Zero(t, tk.Count(""))
	assert.Equal(t, 1, tk.Count("hello"))
	assert.Greater(t, tk.Count("antidisestablishmentarianism"), 1)
}

func TestTiktoken_Deterministic(t *testing.T) {
	tk, err := New("gpt-4")
	require.NoError(t, err)

	text := strings.Repeat("never gonna give you up ", 50)
	first := tk.Count(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, tk.Count(text))
	}
}

func TestNew_UnknownModel(t *testing.T) {
	_, err := New("definitely-not-a-model")
	require.Error(t, err)
}

func TestCounterFunc(t *testing.T) {
	c := CounterFunc(func(s string) int { return len(s) })
	assert.Equal(t, 4, c.Count("abc "))
}
