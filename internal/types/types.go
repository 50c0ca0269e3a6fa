package types

import "time"

// Script is the immutable narration request: the text to speak and the name
// of the voice profile to speak it with.
type Script struct {
	Title string
	Text  string
	Voice string
}

// VoiceProfile maps a profile name to a concrete backend voice and a speed
// multiplier applied at synthesis time.
type VoiceProfile struct {
	Name  string
	Voice string
	Speed float64
}

// AudioTrack describes a synthesized narration file on disk.
type AudioTrack struct {
	Path       string
	SampleRate int
	Duration   time.Duration
}

// Word is a single aligned word span. Spans within a sequence are ordered by
// Start and never overlap once normalized.
type Word struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// Alignment is the output of the forced-alignment capability. Clamped counts
// the spans that had to be adjusted to restore the ordering invariants.
type Alignment struct {
	Words   []Word
	Clamped int
}

// CaptionCue is one timed display unit of at most a configured number of
// lines.
type CaptionCue struct {
	Lines []string
	Start time.Duration
	End   time.Duration
}

// CaptionTrack holds ordered, non-overlapping cues covering a prefix of the
// narration.
type CaptionTrack struct {
	Cues []CaptionCue
}

// BackgroundClip is metadata about one candidate background video. Clip
// content is streamed by the compositor, never loaded here.
type BackgroundClip struct {
	Path     string
	Duration time.Duration
	Width    int
	Height   int
	HasAudio bool
}

// BackgroundSelection is a window inside a clip. Offset+Duration never
// exceeds the clip's total duration.
type BackgroundSelection struct {
	Clip     BackgroundClip
	Offset   time.Duration
	Duration time.Duration
}

// ReelArtifact is the rendered output. ID is derived from the narration text
// alone, so re-running unchanged input reproduces the same artifact.
type ReelArtifact struct {
	ID       string
	Path     string
	Duration time.Duration
	Cached   bool
}

// Outcome records how one reel of a batch ended.
type Outcome struct {
	ReelID   string
	Title    string
	Path     string
	Duration time.Duration
	Cached   bool
	Err      error
}
