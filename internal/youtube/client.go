package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/yegors/yt-scribe/pkg/logger"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// playerResponseMarker marks the start of the player response JSON in watch page HTML
	playerResponseMarker = "ytInitialPlayerResponse = "

	maxWatchPageBytes = 6 * 1024 * 1024
	maxTimedTextBytes = 4 * 1024 * 1024
)

// Client fetches caption tracks for videos
type Client struct {
	httpClient *http.Client
	baseURL    string
	languages  []string
	logger     *logger.Logger
}

// NewClient creates a caption client, routing traffic through config.Proxy when set
func NewClient(config Config, log *logger.Logger) (*Client, error) {
	transport, err := newTransport(config.Proxy)
	if err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	languages := config.Languages
	if len(languages) == 0 {
		languages = []string{"en"}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL:   baseURL,
		languages: languages,
		logger:    log.Named("youtube-client"),
	}, nil
}

// newTransport builds the HTTP transport, optionally behind an HTTP or SOCKS5 proxy
func newTransport(proxyAddr string) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext:         dialer.DialContext,
	}

	if proxyAddr == "" {
		return transport, nil
	}

	proxyURL, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address %q: %w", proxyAddr, err)
	}

	switch proxyURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
	case "socks5", "socks5h":
		d, err := proxy.FromURL(proxyURL, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create socks proxy dialer: %w", err)
		}
		if cd, ok := d.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}

	return transport, nil
}

// Fetch returns the caption entries of videoID ordered by start time.
// Errors match ErrNotFound or ErrNetwork with errors.Is.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]TranscriptEntry, error) {
	body, err := c.get(ctx, c.baseURL+"/watch?v="+url.QueryEscape(videoID), maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	tracks, err := parseCaptionTracks(body)
	if err != nil {
		return nil, err
	}

	track := pickBestTrack(tracks, c.languages)
	c.logger.Debug("Selected caption track",
		logger.String("video_id", videoID),
		logger.String("language", track.LanguageCode),
		logger.String("kind", track.Kind),
		logger.Int("available_tracks", len(tracks)))

	data, err := c.get(ctx, track.BaseURL, maxTimedTextBytes)
	if err != nil {
		return nil, fmt.Errorf("timedtext: %w", err)
	}

	entries, err := parseTimedText(data)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("caption track for %s is empty: %w", videoID, ErrNotFound)
	}

	c.logger.Info("Fetched transcript",
		logger.String("video_id", videoID),
		logger.Int("entries", len(entries)))

	return entries, nil
}

// get performs one GET request and classifies failures
func (c *Client) get(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrNetwork, err)
	}
	return body, nil
}

// parseCaptionTracks extracts caption tracks from watch page HTML
func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	idx := strings.Index(string(page), playerResponseMarker)
	if idx < 0 {
		return nil, fmt.Errorf("player response not found in watch page: %w", ErrNotFound)
	}

	raw := extractJSON(page[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, fmt.Errorf("player response is malformed: %w", ErrNetwork)
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("%w: decode player response: %v", ErrNetwork, err)
	}

	if player.Captions == nil {
		reason := "captions are disabled"
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			reason = player.PlayabilityStatus.Reason
		}
		return nil, fmt.Errorf("%s: %w", reason, ErrNotFound)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	usable := tracks[:0:0]
	for _, t := range tracks {
		// Tracks flagged exp=xpe need a browser PoToken
		if t.BaseURL != "" && !strings.Contains(t.BaseURL, "&exp=xpe") {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("no usable caption tracks: %w", ErrNotFound)
	}
	return usable, nil
}

// pickBestTrack prefers manual tracks in a preferred language, then
// auto-generated ones, then any English track, then the first track.
func pickBestTrack(tracks []captionTrack, langs []string) captionTrack {
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}

// parseTimedText decodes a timedtext XML document into entries ordered by start
func parseTimedText(data []byte) ([]TranscriptEntry, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse timedtext XML: %v", ErrNetwork, err)
	}

	entries := make([]TranscriptEntry, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		// Caption text arrives entity-encoded a second time inside the XML
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text == "" {
			continue
		}
		entries = append(entries, TranscriptEntry{
			Text:     text,
			Start:    line.Start,
			Duration: line.Duration,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start < entries[j].Start
	})
	return entries, nil
}

// extractJSON returns the balanced JSON object at the start of b, or nil
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, ch := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
