package captions

import (
	"strings"
	"time"

	"reelforge/internal/types"
)

// Limits bounds how much text a single cue may carry and how long it may sit
// on screen. All values are tunable; zero values fall back to nothing — the
// caller is expected to pass a fully populated struct.
type Limits struct {
	// MaxLines is the number of display lines a cue may wrap into.
	MaxLines int
	// MaxLineChars is the character budget of one display line.
	MaxLineChars int
	// MaxWindow is the longest a single cue may span.
	MaxWindow time.Duration
	// SilenceGap forces a cue break when the pause between two words exceeds
	// it, so a caption never sits idle over silence.
	SilenceGap time.Duration
	// Delay is the lead-in subtracted from a cue's end so it clears the
	// screen slightly before the next one appears.
	Delay time.Duration
}

// Build groups aligned words into display cues. Words are accumulated
// greedily into the current cue until adding the next one would exceed the
// reading window or the wrapped text would no longer fit the line budget; a
// silence longer than Limits.SilenceGap breaks the cue regardless of size.
// Input spans must already be normalized (ordered, non-overlapping).
func Build(words []types.Word, lim Limits) types.CaptionTrack {
	var track types.CaptionTrack
	var cur []types.Word
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		w.Text = strings.TrimSpace(w.Text)
		if len(cur) == 0 {
			cur = append(cur, w)
			continue
		}
		if fitsCue(cur, w, lim) {
			cur = append(cur, w)
			continue
		}
		gap := lim.SilenceGap > 0 && w.Start-cur[len(cur)-1].End > lim.SilenceGap
		track.Cues = append(track.Cues, finishCue(cur, w.Start, gap, lim))
		cur = []types.Word{w}
	}
	if len(cur) > 0 {
		track.Cues = append(track.Cues, closeCue(cur, lim))
	}
	return track
}

func fitsCue(cur []types.Word, next types.Word, lim Limits) bool {
	last := cur[len(cur)-1]
	if lim.SilenceGap > 0 && next.Start-last.End > lim.SilenceGap {
		return false
	}
	if lim.MaxWindow > 0 && next.End-cur[0].Start > lim.MaxWindow {
		return false
	}
	texts := make([]string, 0, len(cur)+1)
	for _, w := range cur {
		texts = append(texts, w.Text)
	}
	texts = append(texts, next.Text)
	return len(wrap(texts, lim.MaxLineChars)) <= lim.MaxLines
}

// finishCue closes a cue that is followed by another word. For a size-forced
// break the cue stays up until the next word's start minus the configured
// lead-in (never earlier than its own last word), so the screen is not blank
// between tightly spoken cues. A silence-forced break ends with the speech:
// the whole point of the gap rule is that no caption sits idle over silence.
func finishCue(ws []types.Word, nextStart time.Duration, gapBreak bool, lim Limits) types.CaptionCue {
	cue := closeCue(ws, lim)
	if gapBreak {
		return cue
	}
	end := nextStart - lim.Delay
	if end < cue.End {
		end = cue.End
	}
	if end > nextStart {
		end = nextStart
	}
	cue.End = end
	return cue
}

func closeCue(ws []types.Word, lim Limits) types.CaptionCue {
	texts := make([]string, 0, len(ws))
	for _, w := range ws {
		texts = append(texts, w.Text)
	}
	return types.CaptionCue{
		Lines: wrap(texts, lim.MaxLineChars),
		Start: ws[0].Start,
		End:   ws[len(ws)-1].End,
	}
}

// wrap lays words out greedily into lines of at most width characters. A
// single word longer than the budget is hard-split rather than dropped.
func wrap(words []string, width int) []string {
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
		}
	}
	for _, w := range words {
		runes := []rune(w)
		if len(runes) > width {
			flush()
			for len(runes) > width {
				lines = append(lines, string(runes[:width]))
				runes = runes[width:]
			}
			cur.WriteString(string(runes))
			continue
		}
		need := len(runes)
		if cur.Len() > 0 {
			need += len([]rune(cur.String())) + 1
		}
		if cur.Len() > 0 && need > width {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	flush()
	return lines
}

// ClampToDuration trims the track so no cue outlives the narration audio.
// Alignment backends can overshoot the final word by a few frames.
func ClampToDuration(track types.CaptionTrack, total time.Duration) types.CaptionTrack {
	out := types.CaptionTrack{}
	for _, c := range track.Cues {
		if c.Start >= total {
			break
		}
		if c.End > total {
			c.End = total
		}
		if c.End <= c.Start {
			continue
		}
		out.Cues = append(out.Cues, c)
	}
	return out
}
