package captions

import (
	"fmt"
	"regexp"

	"reelforge/internal/types"
)

// Pattern is one compiled censoring rule applied to cue text before
// rendering.
type Pattern struct {
	Re          *regexp.Regexp
	Replacement string
}

// Rule is a raw pattern/replacement pair as it appears in configuration.
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// CompilePatterns builds censoring rules from raw pattern/replacement pairs,
// preserving order. Matching is case-insensitive.
func CompilePatterns(rules []Rule) ([]Pattern, error) {
	out := make([]Pattern, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("censor pattern %q: %w", r.Pattern, err)
		}
		out = append(out, Pattern{Re: re, Replacement: r.Replacement})
	}
	return out, nil
}

// Censor returns a copy of the track with every pattern applied to every
// line. Timing is untouched.
func Censor(track types.CaptionTrack, patterns []Pattern) types.CaptionTrack {
	if len(patterns) == 0 {
		return track
	}
	out := types.CaptionTrack{Cues: make([]types.CaptionCue, len(track.Cues))}
	for i, c := range track.Cues {
		lines := make([]string, len(c.Lines))
		for j, ln := range c.Lines {
			for _, p := range patterns {
				ln = p.Re.ReplaceAllString(ln, p.Replacement)
			}
			lines[j] = ln
		}
		out.Cues[i] = types.CaptionCue{Lines: lines, Start: c.Start, End: c.End}
	}
	return out
}
