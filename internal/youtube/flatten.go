package youtube

import (
	"fmt"
	"math"
	"strings"
)

// Flatten joins entry texts with single spaces. With timestamps each entry is
// prefixed with its [MM:SS] start offset.
func Flatten(entries []TranscriptEntry, withTimestamps bool) string {
	var sb strings.Builder
	for _, e := range entries {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		if withTimestamps {
			sb.WriteString(FormatTimestamp(e.Start))
			sb.WriteByte(' ')
		}
		sb.WriteString(e.Text)
	}
	return sb.String()
}

// FormatTimestamp renders a start offset in seconds as [MM:SS], rounding down.
// Minutes are not wrapped into hours.
func FormatTimestamp(seconds float64) string {
	total := int(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("[%02d:%02d]", total/60, total%60)
}
