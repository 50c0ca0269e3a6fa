package ports

import (
	"context"
	"time"

	"reelforge/internal/types"
)

// Synthesizer is the text-to-speech capability. Implementations write the
// narration wav to outWav; the caller owns path layout and caching.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice types.VoiceProfile, outWav string) error
}

// Aligner is the speech-alignment capability. When referenceText is
// non-empty the backend is constrained to it; otherwise free transcription is
// used. Returned spans satisfy the ordering invariants (implementations
// normalize before returning).
type Aligner interface {
	Align(ctx context.Context, wavPath, referenceText, workDir string) (types.Alignment, error)
}

// ComposeJob is the full parameter set of one composition pass.
type ComposeJob struct {
	BackgroundPath     string
	BackgroundHasAudio bool
	Offset             time.Duration
	Duration           time.Duration
	NarrationWav       string
	SubtitleASS        string
	AspectW            int
	AspectH            int
	NarrationGain      float64
	DuckLevel          float64
	OutPath            string
}

// VideoTool is the encoding toolchain: probing inputs and rendering the
// final composition.
type VideoTool interface {
	ProbeClip(ctx context.Context, path string) (types.BackgroundClip, error)
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	Compose(ctx context.Context, job ComposeJob) error
}
