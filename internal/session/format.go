package session

import (
	"fmt"
	"time"
)

// FormatElapsed renders milliseconds as HH:MM:SS.
// Milliseconds are truncated and the hour component wraps at 60.
func FormatElapsed(millis int64) string {
	millis /= 1000

	s := millis % 60
	millis /= 60

	m := millis % 60
	millis /= 60

	h := millis % 60

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Progress maps elapsed playback time onto [0, maximum].
// An unknown (zero) duration yields 0.
func Progress(elapsed, duration time.Duration, maximum int) int {
	if duration <= 0 || elapsed <= 0 || maximum <= 0 {
		return 0
	}

	ratio := float64(elapsed) / float64(duration)
	if ratio > 1 {
		ratio = 1
	}

	return int(ratio * float64(maximum))
}
