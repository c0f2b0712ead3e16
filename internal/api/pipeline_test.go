package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/yt-scribe/internal/chunker"
	"github.com/yegors/yt-scribe/internal/completion"
	"github.com/yegors/yt-scribe/internal/metrics"
	"github.com/yegors/yt-scribe/internal/tokenizer"
	"github.com/yegors/yt-scribe/internal/transcription"
	"github.com/yegors/yt-scribe/internal/youtube"
	"github.com/yegors/yt-scribe/pkg/logger"
)

const testVideoID = "dQw4w9WgXcQ"

// captionServer serves a watch page and a timedtext track with the given lines
func captionServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != testVideoID {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"%s/api/timedtext?lang=en","languageCode":"en"}]}}};</script>`, srv.URL)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="utf-8" ?><transcript>`)
		for i, line := range lines {
			fmt.Fprintf(&b, `<text start="%d" dur="1">%s</text>`, i*2, line)
		}
		b.WriteString(`</transcript>`)
		_, _ = w.Write([]byte(b.String()))
	})
	return srv
}

// echoCompletionServer answers every chat completion with the user message,
// or with a 500 when the user message equals failOn
func echoCompletionServer(t *testing.T, failOn string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Messages, 2) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		content := req.Messages[1].Content

		w.Header().Set("Content-Type", "application/json")
		if failOn != "" && content == failOn {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-echo",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newPipelineRouter wires the real caption and completion clients against fake
// providers. Every word costs one token so maxTokens is a word count.
func newPipelineRouter(t *testing.T, captionsURL, completionURL string, maxTokens int) http.Handler {
	t.Helper()
	log := logger.NewNop()
	m := metrics.New()

	source, err := youtube.NewClient(youtube.Config{BaseURL: captionsURL}, log)
	require.NoError(t, err)
	corrector, err := completion.NewClient(completion.Config{APIKey: "sk-test", BaseURL: completionURL + "/v1/"}, log)
	require.NoError(t, err)

	words := chunker.New(tokenizer.CounterFunc(func(string) int { return 1 }))
	coordinator := transcription.NewCoordinator(words, corrector, 4, m, log)
	service := transcription.NewService(source, coordinator, nil, transcription.Config{MaxTokens: maxTokens}, m, log)

	return NewRouter(service, nil, nil, m, RouterConfig{}, log).Routes()
}

func TestPipeline_EchoReturnsConcatenatedCaptions(t *testing.T) {
	captions := captionServer(t, "hello there", "general kenobi")
	completions := echoCompletionServer(t, "")
	h := newPipelineRouter(t, captions.URL, completions.URL, 0)

	rec := doRequest(t, h, http.MethodPost, "/transcribe", `{"url":"https://youtu.be/`+testVideoID+`"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"result": "hello there general kenobi"}, decodeBody(t, rec))
}

func TestPipeline_FailedChunkIsEmbedded(t *testing.T) {
	captions := captionServer(t, "alpha", "beta", "gamma")
	completions := echoCompletionServer(t, "beta")
	h := newPipelineRouter(t, captions.URL, completions.URL, 1)

	rec := doRequest(t, h, http.MethodPost, "/transcribe", `{"url":"https://www.youtube.com/watch?v=`+testVideoID+`"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result, _ := decodeBody(t, rec)["result"].(string)
	assert.True(t, strings.HasPrefix(result, "alpha [chunk 1 failed: "), result)
	assert.True(t, strings.HasSuffix(result, "] gamma"), result)
}

func TestPipeline_TimestampedOutput(t *testing.T) {
	captions := captionServer(t, "first", "second")
	completions := echoCompletionServer(t, "")
	h := newPipelineRouter(t, captions.URL, completions.URL, 0)

	rec := doRequest(t, h, http.MethodPost, "/transcribe", `{"url":"https://youtu.be/`+testVideoID+`","timestamps":true}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "[00:00] first [00:02] second", body["original"])
	assert.Equal(t, body["original"], body["improved"])
}

func TestPipeline_UnknownVideoIs404(t *testing.T) {
	captions := captionServer(t, "unused")
	completions := echoCompletionServer(t, "")
	h := newPipelineRouter(t, captions.URL, completions.URL, 0)

	rec := doRequest(t, h, http.MethodPost, "/transcribe", `{"url":"https://youtu.be/aaaaaaaaaaa"}`, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No transcript available for this video", decodeBody(t, rec)["error"])
}

func TestPipeline_UnreachableProviderIs500(t *testing.T) {
	captions := captionServer(t, "unused")
	captions.Close()
	completions := echoCompletionServer(t, "")
	h := newPipelineRouter(t, captions.URL, completions.URL, 0)

	rec := doRequest(t, h, http.MethodPost, "/transcribe", `{"url":"https://youtu.be/`+testVideoID+`"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An unexpected error occurred", decodeBody(t, rec)["error"])
}
