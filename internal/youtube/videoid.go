package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDRe = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// pathPrefixes are youtube.com paths followed directly by a video ID
var pathPrefixes = []string{"/embed/", "/shorts/", "/live/", "/v/"}

// ExtractID returns the 11-character video ID in rawURL. It understands
// youtube.com/watch?v=, youtu.be/ and the embed, shorts, live and v paths.
// ok is false when nothing matches, which callers should treat as bad input.
func ExtractID(rawURL string) (id string, ok bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case host == "youtu.be":
		return validID(firstSegment(u.Path))
	case host == "youtube.com" || host == "music.youtube.com" || host == "youtube-nocookie.com":
		if u.Path == "/watch" {
			return validID(u.Query().Get("v"))
		}
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				return validID(firstSegment(strings.TrimPrefix(u.Path, prefix)))
			}
		}
	}
	return "", false
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}

func validID(candidate string) (string, bool) {
	if !videoIDRe.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}
