package captions

import (
	"fmt"
	"strings"
	"time"

	"reelforge/internal/types"
)

// RenderVTT serializes the track as WebVTT, the plain intermediate format
// kept alongside the styled ASS file for downstream tooling.
func RenderVTT(track types.CaptionTrack) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for _, c := range track.Cues {
		b.WriteString("\n")
		b.WriteString(vttTime(c.Start))
		b.WriteString(" --> ")
		b.WriteString(vttTime(c.End))
		b.WriteString("\n")
		b.WriteString(strings.Join(c.Lines, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func vttTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hs, ms, s, int(d/time.Millisecond))
}
