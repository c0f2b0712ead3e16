package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"watch with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=5", "dQw4w9WgXcQ", true},
		{"watch param not first", "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short link with query", "https://youtu.be/dQw4w9WgXcQ?si=abc123", "dQw4w9WgXcQ", true},
		{"no scheme", "youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts", "https://youtube.com/shorts/dQw4w9WgXcQ?feature=share", "dQw4w9WgXcQ", true},
		{"not a url", "not a url", "", false},
		{"empty", "", "", false},
		{"id too short", "https://youtu.be/dQw4w9", "", false},
		{"id too long", "https://www.youtube.com/watch?v=dQw4w9WgXcQQ", "", false},
		{"bad characters", "https://youtu.be/dQw4w9Wg!cQ", "", false},
		{"other host", "https://example.com/watch?v=dQw4w9WgXcQ", "", false},
		{"channel page", "https://www.youtube.com/@somechannel", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlatten(t *testing.T) {
	entries := []TranscriptEntry{
		{Text: "hello there", Start: 0.4},
		{Text: "general kenobi", Start: 65.9},
		{Text: "you are a bold one", Start: 3725},
	}

	assert.Equal(t, "hello there general kenobi you are a bold one", Flatten(entries, false))
	assert.Equal(t, "[00:00] hello there [01:05] general kenobi [62:05] you are a bold one", Flatten(entries, true))
	assert.Empty(t, Flatten(nil, true))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "[00:00]", FormatTimestamp(0))
	assert.Equal(t, "[00:59]", FormatTimestamp(59.999))
	assert.Equal(t, "[01:00]", FormatTimestamp(60))
	assert.Equal(t, "[00:00]", FormatTimestamp(-3))
}
