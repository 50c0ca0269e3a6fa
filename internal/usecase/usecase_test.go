package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelforge/internal/domain/background"
	"reelforge/internal/domain/captions"
	"reelforge/internal/ports"
	"reelforge/internal/retry"
	"reelforge/internal/types"
)

func sec(v float64) time.Duration { return time.Duration(v * float64(time.Second)) }

type fakeSynth struct {
	calls int
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, _ string, _ types.VoiceProfile, outWav string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outWav, []byte("RIFF"), 0o644)
}

type fakeAligner struct {
	calls int
	words []types.Word
	err   error
}

func (f *fakeAligner) Align(_ context.Context, _, _, _ string) (types.Alignment, error) {
	f.calls++
	if f.err != nil {
		return types.Alignment{}, f.err
	}
	return types.Alignment{Words: f.words}, nil
}

type fakeVideo struct {
	narrationDur time.Duration
	composeJobs  []ports.ComposeJob
	composeErr   error
}

func (f *fakeVideo) ProbeClip(_ context.Context, path string) (types.BackgroundClip, error) {
	return types.BackgroundClip{Path: path}, nil
}

func (f *fakeVideo) ProbeDuration(_ context.Context, _ string) (time.Duration, error) {
	return f.narrationDur, nil
}

func (f *fakeVideo) Compose(_ context.Context, job ports.ComposeJob) error {
	f.composeJobs = append(f.composeJobs, job)
	if f.composeErr != nil {
		return f.composeErr
	}
	return os.WriteFile(job.OutPath, []byte("mp4"), 0o644)
}

func fortyWords() string {
	words := make([]string, 40)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	return "Once upon a time " + strings.Join(words[4:], " ")
}

func testInput(t *testing.T, pool []types.BackgroundClip) Input {
	t.Helper()
	tmp := t.TempDir()
	paths := Paths{
		NarrationDir: filepath.Join(tmp, "narration"),
		ReelsDir:     filepath.Join(tmp, "reels"),
		WorkDir:      filepath.Join(tmp, "work"),
	}
	for _, d := range []string{paths.NarrationDir, paths.ReelsDir, paths.WorkDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return Input{
		Script: types.Script{Title: "story", Text: fortyWords(), Voice: "neutral"},
		Voice:  types.VoiceProfile{Name: "neutral", Voice: "af_heart", Speed: 1.0},
		Pool:   pool,
		Paths:  paths,

		// 40 words at 160 wpm estimates 15s; with 3s padding the selector
		// needs an 18s window.
		WordsPerMinute:   160,
		SelectionPadding: sec(3),
		Policy:           background.PolicyDeterministic,
		Rng:              rand.New(rand.NewSource(42)),

		Limits: captions.Limits{
			MaxLines:     2,
			MaxLineChars: 24,
			MaxWindow:    sec(3.5),
			SilenceGap:   sec(1.5),
			Delay:        sec(0.1),
		},
		Style: captions.Style{
			FontName: "Inter", FontSize: 150, PrimaryColour: "&H00FFFFFF",
			BackColour: "&H64000000", Alignment: 5, PlayResX: 1080, PlayResY: 1920,
		},

		AspectW: 9, AspectH: 16,
		NarrationGain: 1.5,
		DuckLevel:     0.1,
		Retry:         retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
	}
}

func alignedWords(n int, total time.Duration) []types.Word {
	step := total / time.Duration(n)
	out := make([]types.Word, n)
	for i := range out {
		out[i] = types.Word{
			Text:  fmt.Sprintf("w%d", i),
			Start: step * time.Duration(i),
			End:   step*time.Duration(i) + step*9/10,
		}
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(30), HasAudio: true}}
	in := testInput(t, pool)
	video := &fakeVideo{narrationDur: sec(17.4)}
	synth := &fakeSynth{}
	uc := New(Deps{
		Synth: synth,
		Align: &fakeAligner{words: alignedWords(40, sec(17.4))},
		Video: video,
	})

	art, err := uc.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if art.Duration != sec(17.4) {
		t.Fatalf("artifact duration %v, want the narration's 17.4s", art.Duration)
	}
	if art.ID != ReelID(strings.TrimSpace(in.Script.Text)) {
		t.Fatalf("artifact id %q not content-addressed", art.ID)
	}
	if _, err := os.Stat(art.Path); err != nil {
		t.Fatalf("final reel missing: %v", err)
	}
	if strings.HasSuffix(art.Path, ".partial") {
		t.Fatalf("artifact left at temp path: %s", art.Path)
	}

	if len(video.composeJobs) != 1 {
		t.Fatalf("expected 1 compose call, got %d", len(video.composeJobs))
	}
	job := video.composeJobs[0]
	// Duration law: the composed output is trimmed to the narration's actual
	// duration, not the estimate.
	if job.Duration != sec(17.4) {
		t.Fatalf("compose duration %v, want 17.4s", job.Duration)
	}
	if job.Offset < 0 || job.Offset+job.Duration > sec(30) {
		t.Fatalf("compose window [%v, %v] escapes the 30s clip", job.Offset, job.Offset+job.Duration)
	}
	if job.SubtitleASS == "" {
		t.Fatal("compose job missing subtitle track")
	}
	if !job.BackgroundHasAudio {
		t.Fatal("background audio flag lost on the way to composition")
	}

	// Both caption serializations persisted next to the narration.
	for _, ext := range []string{".vtt", ".ass"} {
		p := filepath.Join(in.Paths.NarrationDir, art.ID+ext)
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing caption file %s: %v", p, err)
		}
	}
}

func TestRun_ShortPoolFailsBeforeSynthesis(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "short.mp4", Duration: sec(10)}}
	in := testInput(t, pool)
	synth := &fakeSynth{}
	uc := New(Deps{
		Synth: synth,
		Align: &fakeAligner{},
		Video: &fakeVideo{narrationDur: sec(17.4)},
	})

	_, err := uc.Run(context.Background(), in)
	if !types.IsInput(err) {
		t.Fatalf("expected input error for short pool, got %v", err)
	}
	if synth.calls != 0 {
		t.Fatalf("synthesis ran %d times before the pool check", synth.calls)
	}
}

func TestRun_EmptyScriptRejected(t *testing.T) {
	t.Parallel()

	in := testInput(t, []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(30)}})
	in.Script.Text = "   \n  "
	uc := New(Deps{Synth: &fakeSynth{}, Align: &fakeAligner{}, Video: &fakeVideo{}})
	_, err := uc.Run(context.Background(), in)
	if !types.IsInput(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestRun_NarrationCacheSkipsResynthesis(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(30)}}
	in := testInput(t, pool)
	video := &fakeVideo{narrationDur: sec(17.4)}
	synth := &fakeSynth{}
	uc := New(Deps{
		Synth: synth,
		Align: &fakeAligner{words: alignedWords(40, sec(17.4))},
		Video: video,
	})

	art, err := uc.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if synth.calls != 1 {
		t.Fatalf("first run synthesized %d times", synth.calls)
	}

	// Drop the rendered reel but keep the narration cache: the second run
	// must reuse the wav instead of resynthesizing.
	if err := os.Remove(art.Path); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Run(context.Background(), in); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if synth.calls != 1 {
		t.Fatalf("cached narration resynthesized, calls=%d", synth.calls)
	}
}

func TestRun_ArtifactCacheShortCircuits(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(30)}}
	in := testInput(t, pool)
	video := &fakeVideo{narrationDur: sec(17.4)}
	synth := &fakeSynth{}
	uc := New(Deps{
		Synth: synth,
		Align: &fakeAligner{words: alignedWords(40, sec(17.4))},
		Video: video,
	})

	first, err := uc.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := uc.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Cached {
		t.Fatal("expected a cache hit on unchanged input")
	}
	if second.ID != first.ID || second.Path != first.Path {
		t.Fatalf("cache hit changed identity: %+v vs %+v", first, second)
	}
	if synth.calls != 1 || len(video.composeJobs) != 1 {
		t.Fatalf("cache hit redid work: synth=%d compose=%d", synth.calls, len(video.composeJobs))
	}
}

func TestRun_AlignmentFailureFallsBack(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(30)}}
	in := testInput(t, pool)
	video := &fakeVideo{narrationDur: sec(17.4)}
	align := &fakeAligner{err: &types.CapabilityError{
		Capability: "whisper.cpp", Transient: true, Err: errors.New("model exploded"),
	}}
	uc := New(Deps{Synth: &fakeSynth{}, Align: align, Video: video})

	art, err := uc.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("alignment failure must not kill the reel: %v", err)
	}
	if align.calls != 2 {
		t.Fatalf("expected bounded retries (2 attempts), got %d", align.calls)
	}
	if len(video.composeJobs) != 1 || video.composeJobs[0].SubtitleASS == "" {
		t.Fatal("fallback run should still compose with captions")
	}
	if art.Duration != sec(17.4) {
		t.Fatalf("fallback duration %v", art.Duration)
	}
}

func TestRun_ComposeFailureIsStageFailure(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(30)}}
	in := testInput(t, pool)
	video := &fakeVideo{
		narrationDur: sec(17.4),
		composeErr:   &types.CompositionError{Err: errors.New("missing codec")},
	}
	uc := New(Deps{
		Synth: &fakeSynth{},
		Align: &fakeAligner{words: alignedWords(40, sec(17.4))},
		Video: video,
	})

	_, err := uc.Run(context.Background(), in)
	var sf *types.StageFailure
	if !errors.As(err, &sf) {
		t.Fatalf("expected stage failure, got %T: %v", err, err)
	}
	if sf.Stage != "compose" {
		t.Fatalf("stage = %q", sf.Stage)
	}
	var ce *types.CompositionError
	if !errors.As(err, &ce) {
		t.Fatalf("composition error lost in wrapping: %v", err)
	}
	// No partial output left behind.
	entries, err2 := os.ReadDir(in.Paths.ReelsDir)
	if err2 != nil {
		t.Fatal(err2)
	}
	if len(entries) != 0 {
		t.Fatalf("reels dir should be empty after failure, found %d entries", len(entries))
	}
}

func TestRun_ActualLongerThanEstimateSlidesOffset(t *testing.T) {
	t.Parallel()

	// Estimate reserves 18s, but the synthesized narration runs 25s. The
	// clip still covers it, so the offset slides back instead of failing.
	pool := []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(26)}}
	in := testInput(t, pool)
	video := &fakeVideo{narrationDur: sec(25)}
	uc := New(Deps{
		Synth: &fakeSynth{},
		Align: &fakeAligner{words: alignedWords(40, sec(25))},
		Video: video,
	})

	if _, err := uc.Run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}
	job := video.composeJobs[0]
	if job.Offset+job.Duration > sec(26) {
		t.Fatalf("window [%v, %v] escapes the clip", job.Offset, job.Offset+job.Duration)
	}
}

func TestRun_ActualExceedsClipFails(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "bg.mp4", Duration: sec(20)}}
	in := testInput(t, pool)
	video := &fakeVideo{narrationDur: sec(25)}
	uc := New(Deps{
		Synth: &fakeSynth{},
		Align: &fakeAligner{words: alignedWords(40, sec(25))},
		Video: video,
	})

	_, err := uc.Run(context.Background(), in)
	var ce *types.CompositionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected composition error when narration outgrows the clip, got %v", err)
	}
	if len(video.composeJobs) != 0 {
		t.Fatal("compose must not run when the window cannot fit")
	}
}

func TestReelID_Deterministic(t *testing.T) {
	t.Parallel()

	if ReelID("same text") != ReelID("same text") {
		t.Fatal("reel id not deterministic")
	}
	if ReelID("same text") == ReelID("other text") {
		t.Fatal("different texts should not collide in a trivial test")
	}
	if len(ReelID("x")) != 10 {
		t.Fatalf("reel id length = %d", len(ReelID("x")))
	}
	if ReelID("x") != strings.ToUpper(ReelID("x")) {
		t.Fatal("reel id should be uppercase")
	}
}
