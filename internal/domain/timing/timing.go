package timing

import (
	"strings"
	"time"

	"reelforge/internal/types"
)

// Normalize restores the ordering invariants on aligned word spans: starts
// are non-decreasing and end[i] <= start[i+1]. Backends occasionally emit
// overlapping or reversed spans; clamping here keeps the rest of the pipeline
// free of defensive checks. The second return value is the number of spans
// that were adjusted.
func Normalize(words []types.Word) ([]types.Word, int) {
	out := make([]types.Word, len(words))
	copy(out, words)
	clamped := 0
	for i := range out {
		adjusted := false
		if i > 0 && out[i].Start < out[i-1].Start {
			out[i].Start = out[i-1].Start
			adjusted = true
		}
		if out[i].End < out[i].Start {
			out[i].End = out[i].Start
			adjusted = true
		}
		if i+1 < len(out) {
			next := out[i+1].Start
			if i > 0 && next < out[i].Start {
				next = out[i].Start
			}
			if out[i].End > next {
				out[i].End = next
				adjusted = true
			}
		}
		if adjusted {
			clamped++
		}
	}
	return out, clamped
}

// Distribute is the alignment fallback: it spreads the transcript's words
// across [0, total) proportionally to their rune length, so long words get a
// longer share and cue pacing stays readable even without real timestamps.
func Distribute(text string, total time.Duration) []types.Word {
	fields := strings.Fields(text)
	if len(fields) == 0 || total <= 0 {
		return nil
	}
	weight := 0
	for _, f := range fields {
		weight += len([]rune(f))
	}
	out := make([]types.Word, 0, len(fields))
	cursor := time.Duration(0)
	spent := 0
	for _, f := range fields {
		spent += len([]rune(f))
		end := time.Duration(float64(total) * float64(spent) / float64(weight))
		out = append(out, types.Word{Text: f, Start: cursor, End: end})
		cursor = end
	}
	return out
}
