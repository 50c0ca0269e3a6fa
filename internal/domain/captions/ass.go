package captions

import (
	"fmt"
	"strings"
	"time"

	"reelforge/internal/types"
)

// Style carries the visual parameters of the burned-in captions. It is a pure
// data transform: changing it never affects cue timing.
type Style struct {
	FontName      string
	FontSize      int
	PrimaryColour string
	BackColour    string
	Bold          bool
	Outline       int
	Shadow        int
	Alignment     int
	MarginL       int
	MarginR       int
	MarginV       int
	PlayResX      int
	PlayResY      int
}

// RenderASS serializes the track as a styled ASS script consumed by the
// encoder's subtitles filter.
func RenderASS(track types.CaptionTrack, st Style) string {
	var b strings.Builder
	b.WriteString(assHeader(st))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, c := range track.Cues {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(c.Start))
		b.WriteString(",")
		b.WriteString(assTime(c.End))
		b.WriteString(",Reel,,0,0,0,,")
		parts := make([]string, 0, len(c.Lines))
		for _, ln := range c.Lines {
			parts = append(parts, sanitizeASS(ln))
		}
		b.WriteString(strings.Join(parts, "\\N"))
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader(st Style) string {
	bold := 0
	if st.Bold {
		bold = -1
	}
	return fmt.Sprintf(`[Script Info]
Title: Reel Captions
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Reel,%s,%d,%s,%s,%d,0,0,0,100,100,0,0,1,%d,%d,%d,%d,%d,%d,1
`,
		st.PlayResX, st.PlayResY,
		st.FontName, st.FontSize, st.PrimaryColour, st.BackColour, bold,
		st.Outline, st.Shadow, st.Alignment, st.MarginL, st.MarginR, st.MarginV)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
