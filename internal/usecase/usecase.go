package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/domain/background"
	"reelforge/internal/domain/captions"
	"reelforge/internal/domain/estimate"
	"reelforge/internal/domain/timing"
	"reelforge/internal/ports"
	"reelforge/internal/retry"
	"reelforge/internal/types"
)

type Deps struct {
	Synth ports.Synthesizer
	Align ports.Aligner
	Video ports.VideoTool
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

// Paths is the persisted artifact layout: narration audio and subtitles keyed
// by reel id under NarrationDir, finished videos under ReelsDir, scratch
// space under WorkDir.
type Paths struct {
	NarrationDir string
	ReelsDir     string
	WorkDir      string
}

type Input struct {
	Script types.Script
	Voice  types.VoiceProfile
	Pool   []types.BackgroundClip
	Paths  Paths

	WordsPerMinute   float64
	SelectionPadding time.Duration
	Policy           background.Policy
	Rng              *rand.Rand

	Limits captions.Limits
	Style  captions.Style
	Censor []captions.Pattern

	AspectW, AspectH int
	NarrationGain    float64
	DuckLevel        float64

	Retry retry.Policy
	Logf  func(format string, args ...any)
}

// ReelID is the content-addressed identifier of a narration: same text, same
// id, so unchanged input short-circuits on its cached artifact.
func ReelID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:10])
}

// audioKey keys the narration cache. Unlike the reel id it includes the voice
// profile, because the same text spoken by a different voice is different
// audio.
func audioKey(text string, voice types.VoiceProfile) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%s\x00%.2f", text, voice.Voice, voice.Speed))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:10])
}

// Run executes one reel end to end. Every stage consumes the previous
// stage's output by value and nothing is mutated after it is produced.
func (u Usecase) Run(ctx context.Context, in Input) (types.ReelArtifact, error) {
	logf := in.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	text := strings.TrimSpace(in.Script.Text)
	if text == "" {
		return types.ReelArtifact{}, types.Inputf("empty narration script %q", in.Script.Title)
	}
	id := ReelID(text)

	reelPath := filepath.Join(in.Paths.ReelsDir, id+".mp4")
	if _, err := os.Stat(reelPath); err == nil {
		dur, err := u.d.Video.ProbeDuration(ctx, reelPath)
		if err != nil {
			return types.ReelArtifact{}, u.fail(id, "probe cached reel", err)
		}
		logf("[%s] cache hit, reusing %s", id, reelPath)
		return types.ReelArtifact{ID: id, Path: reelPath, Duration: dur, Cached: true}, nil
	}

	est := estimate.Estimate(text, in.WordsPerMinute)
	if est <= 0 {
		return types.ReelArtifact{}, types.Inputf("script %q has no speakable words", in.Script.Title)
	}

	// Selection happens before synthesis: a pool with no long-enough clip
	// must fail the reel before any expensive model work runs.
	sel, err := background.Select(in.Pool, est+in.SelectionPadding, in.Policy, id, in.Rng)
	if err != nil {
		return types.ReelArtifact{}, err
	}
	logf("[%s] background %s at %s (est %s)", id, filepath.Base(sel.Clip.Path), sel.Offset, est)

	audio, err := u.synthesize(ctx, id, text, in, logf)
	if err != nil {
		return types.ReelArtifact{}, err
	}
	logf("[%s] narration %s (%s)", id, filepath.Base(audio.Path), audio.Duration)

	words, err := u.alignWords(ctx, audio, text, in, logf)
	if err != nil {
		return types.ReelArtifact{}, err
	}

	track := captions.Build(words, in.Limits)
	track = captions.Censor(track, in.Censor)
	track = captions.ClampToDuration(track, audio.Duration)

	vttPath := filepath.Join(in.Paths.NarrationDir, id+".vtt")
	assPath := filepath.Join(in.Paths.NarrationDir, id+".ass")
	if err := os.WriteFile(vttPath, []byte(captions.RenderVTT(track)), 0o644); err != nil {
		return types.ReelArtifact{}, u.fail(id, "write captions", err)
	}
	if err := os.WriteFile(assPath, []byte(captions.RenderASS(track, in.Style)), 0o644); err != nil {
		return types.ReelArtifact{}, u.fail(id, "write captions", err)
	}

	sel, err = revalidate(sel, audio.Duration)
	if err != nil {
		return types.ReelArtifact{}, u.fail(id, "compose", err)
	}

	// Compose into a temp path and promote atomically so a crashed run never
	// leaves a truncated reel at the final location.
	partial := filepath.Join(in.Paths.WorkDir, id+".mp4.partial")
	job := ports.ComposeJob{
		BackgroundPath:     sel.Clip.Path,
		BackgroundHasAudio: sel.Clip.HasAudio,
		Offset:             sel.Offset,
		Duration:           audio.Duration,
		NarrationWav:       audio.Path,
		SubtitleASS:        assPath,
		AspectW:            in.AspectW,
		AspectH:            in.AspectH,
		NarrationGain:      in.NarrationGain,
		DuckLevel:          in.DuckLevel,
		OutPath:            partial,
	}
	if err := u.d.Video.Compose(ctx, job); err != nil {
		os.Remove(partial)
		return types.ReelArtifact{}, u.fail(id, "compose", err)
	}
	if err := os.Rename(partial, reelPath); err != nil {
		os.Remove(partial)
		return types.ReelArtifact{}, u.fail(id, "promote reel", err)
	}

	logf("[%s] rendered %s (%s)", id, reelPath, audio.Duration)
	return types.ReelArtifact{ID: id, Path: reelPath, Duration: audio.Duration}, nil
}

func (u Usecase) synthesize(ctx context.Context, id, text string, in Input, logf func(string, ...any)) (types.AudioTrack, error) {
	wav := filepath.Join(in.Paths.NarrationDir, audioKey(text, in.Voice)+".wav")
	if _, err := os.Stat(wav); errors.Is(err, fs.ErrNotExist) {
		err := in.Retry.Do(ctx, func() error {
			return u.d.Synth.Synthesize(ctx, text, in.Voice, wav)
		})
		if err != nil {
			return types.AudioTrack{}, u.fail(id, "synthesize", err)
		}
	} else if err == nil {
		logf("[%s] narration cache hit", id)
	} else {
		return types.AudioTrack{}, u.fail(id, "synthesize", err)
	}

	dur, err := u.d.Video.ProbeDuration(ctx, wav)
	if err != nil {
		return types.AudioTrack{}, u.fail(id, "probe narration", err)
	}
	if dur <= 0 {
		return types.AudioTrack{}, u.fail(id, "probe narration",
			fmt.Errorf("narration %s has zero duration", wav))
	}
	return types.AudioTrack{Path: wav, Duration: dur}, nil
}

// alignWords asks the aligner for word timestamps, retrying transient
// failures. When alignment is exhausted the reel still renders: the known
// transcript is distributed across the audio instead. Misalignment alone
// never kills a reel.
func (u Usecase) alignWords(ctx context.Context, audio types.AudioTrack, text string, in Input, logf func(string, ...any)) ([]types.Word, error) {
	id := ReelID(text)
	var al types.Alignment
	err := in.Retry.Do(ctx, func() error {
		var aerr error
		al, aerr = u.d.Align.Align(ctx, audio.Path, text, in.Paths.WorkDir)
		return aerr
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, u.fail(id, "align", err)
		}
		logf("[%s] alignment failed, distributing transcript evenly: %v", id, err)
		return timing.Distribute(text, audio.Duration), nil
	}
	if al.Clamped > 0 {
		logf("[%s] alignment normalized %d overlapping spans", id, al.Clamped)
	}
	return al.Words, nil
}

// revalidate re-checks the selection window against the narration's actual
// duration. The selection was sized from an estimate; if the audio came out
// longer, slide the offset back, and fail only when the clip truly cannot
// cover the narration.
func revalidate(sel types.BackgroundSelection, actual time.Duration) (types.BackgroundSelection, error) {
	if actual > sel.Clip.Duration {
		return sel, &types.CompositionError{Err: fmt.Errorf(
			"background clip %s (%s) is shorter than narration (%s)",
			sel.Clip.Path, sel.Clip.Duration, actual)}
	}
	sel.Duration = actual
	if sel.Offset+actual > sel.Clip.Duration {
		sel.Offset = sel.Clip.Duration - actual
	}
	return sel, nil
}

func (u Usecase) fail(id, stage string, err error) error {
	return &types.StageFailure{ReelID: id, Stage: stage, Err: err}
}
