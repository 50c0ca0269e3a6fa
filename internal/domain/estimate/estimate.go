package estimate

import (
	"strings"
	"time"
)

// Estimate returns the expected spoken duration of text at the given speech
// rate. It is a planning hint for sizing the background window before
// synthesis finishes; the rendered duration always comes from the actual
// audio.
func Estimate(text string, wordsPerMinute float64) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 || wordsPerMinute <= 0 {
		return 0
	}
	minutes := float64(words) / wordsPerMinute
	return time.Duration(minutes * float64(time.Minute))
}
