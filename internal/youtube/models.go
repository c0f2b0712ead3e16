package youtube

import (
	"encoding/xml"
	"errors"
	"time"
)

var (
	// ErrNotFound means the video has no usable caption track
	ErrNotFound = errors.New("transcript not found")
	// ErrNetwork means the caption provider could not be reached or answered unexpectedly
	ErrNetwork = errors.New("transcript provider unavailable")
)

// TranscriptEntry is one timed caption line
type TranscriptEntry struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Config configures the caption client
type Config struct {
	BaseURL   string // defaults to https://www.youtube.com
	Proxy     string // http://, https:// or socks5:// address
	Languages []string
	Timeout   time.Duration
}

// playerResponse is the subset of ytInitialPlayerResponse we read
type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// timedText is the timedtext XML document
type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Lines   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}
