package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"reelforge/internal/config"
	"reelforge/internal/domain/background"
	"reelforge/internal/domain/captions"
	"reelforge/internal/ports"
	"reelforge/internal/ports/adapters/ffmpeg"
	"reelforge/internal/ports/adapters/kokoro"
	"reelforge/internal/ports/adapters/whispercpp"
	"reelforge/internal/types"
	"reelforge/internal/usecase"
)

type Config struct {
	Scripts        []types.Script
	OutDir         string
	BackgroundGlob string
	Workers        int
	Deterministic  bool
	Logf           func(format string, args ...any)

	Settings config.Config

	FFmpegPath   string
	FFprobePath  string
	WhisperBin   string
	WhisperModel string
	KokoroBin    string
}

func (c Config) Validate() error {
	if len(c.Scripts) == 0 {
		return types.Inputf("no scripts to render")
	}
	if c.BackgroundGlob == "" {
		return types.Inputf("background glob is empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.WhisperModel == "" {
		return fmt.Errorf("whisper model path is required")
	}
	if _, _, err := c.Settings.AspectRatio(); err != nil {
		return err
	}
	return nil
}

// Run renders every script as an independent reel under a bounded worker
// pool. One reel's failure never aborts its siblings; the per-reel outcomes
// carry whatever went wrong.
func Run(ctx context.Context, cfg Config) ([]types.Outcome, error) {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	// adapters
	video := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	synth := kokoro.New(cfg.KokoroBin)
	align := whispercpp.New(cfg.WhisperBin, cfg.WhisperModel)

	uc := usecase.New(usecase.Deps{Synth: synth, Align: align, Video: video})

	paths, err := preparePaths(cfg.OutDir)
	if err != nil {
		return nil, err
	}

	pool, err := loadPool(ctx, video, cfg.BackgroundGlob, logf)
	if err != nil {
		return nil, err
	}
	logf("background pool: %d clips", len(pool))

	censor, err := captions.CompilePatterns(cfg.Settings.Censor)
	if err != nil {
		return nil, err
	}
	aspectW, aspectH, err := cfg.Settings.AspectRatio()
	if err != nil {
		return nil, err
	}

	policy := background.PolicyRandom
	if cfg.Deterministic {
		policy = background.PolicyDeterministic
	}

	outcomes := make([]types.Outcome, len(cfg.Scripts))
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, script := range cfg.Scripts {
		i, script := i, script
		g.Go(func() error {
			id := usecase.ReelID(strings.TrimSpace(script.Text))
			workDir := filepath.Join(paths.WorkDir, id)
			if err := os.MkdirAll(workDir, 0o755); err != nil {
				outcomes[i] = types.Outcome{Title: script.Title, Err: err}
				return nil
			}
			in := usecase.Input{
				Script: script,
				Voice:  cfg.Settings.Voice(script.Voice),
				Pool:   pool,
				Paths: usecase.Paths{
					NarrationDir: paths.NarrationDir,
					ReelsDir:     paths.ReelsDir,
					WorkDir:      workDir,
				},
				WordsPerMinute:   cfg.Settings.WordsPerMinute,
				SelectionPadding: cfg.Settings.SelectionPadding(),
				Policy:           policy,
				Rng:              reelRand(id, cfg.Deterministic),
				Limits:           cfg.Settings.CaptionLimits(),
				Style:            cfg.Settings.CaptionStyle(),
				Censor:           censor,
				AspectW:          aspectW,
				AspectH:          aspectH,
				NarrationGain:    cfg.Settings.Audio.NarrationGain,
				DuckLevel:        cfg.Settings.Audio.DuckLevel,
				Retry:            cfg.Settings.RetryPolicy(),
				Logf:             logf,
			}
			art, err := uc.Run(ctx, in)
			outcomes[i] = types.Outcome{
				ReelID:   art.ID,
				Title:    script.Title,
				Path:     art.Path,
				Duration: art.Duration,
				Cached:   art.Cached,
				Err:      err,
			}
			if err != nil {
				outcomes[i].ReelID = id
				logf("[%s] failed: %v", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

type runPaths struct {
	NarrationDir string
	ReelsDir     string
	WorkDir      string
}

func preparePaths(outDir string) (runPaths, error) {
	if outDir == "" {
		outDir = "output"
	}
	p := runPaths{
		NarrationDir: filepath.Join(outDir, "narration"),
		ReelsDir:     filepath.Join(outDir, "reels"),
		WorkDir:      filepath.Join(outDir, "work"),
	}
	for _, dir := range []string{p.NarrationDir, p.ReelsDir, p.WorkDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return runPaths{}, err
		}
	}
	return p, nil
}

// loadPool probes every clip matching the glob. Clips that fail to probe are
// skipped with a log line rather than failing the batch: one corrupt file in
// the pool should not block every reel.
func loadPool(ctx context.Context, video ports.VideoTool, glob string, logf func(string, ...any)) ([]types.BackgroundClip, error) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("background glob %q: %w", glob, err)
	}
	if len(matches) == 0 {
		return nil, types.Inputf("no background videos match %q", glob)
	}
	pool := make([]types.BackgroundClip, 0, len(matches))
	for _, m := range matches {
		clip, err := video.ProbeClip(ctx, m)
		if err != nil {
			logf("skipping background %s: %v", m, err)
			continue
		}
		pool = append(pool, clip)
	}
	if len(pool) == 0 {
		return nil, types.Inputf("no usable background videos under %q", glob)
	}
	return pool, nil
}

// reelRand gives each reel its own RNG. Under the deterministic policy it is
// seeded from the reel id so reruns reproduce offsets exactly.
func reelRand(reelID string, deterministic bool) *rand.Rand {
	if deterministic {
		return rand.New(rand.NewSource(int64(background.Seed(reelID))))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Synthesizer = (*kokoro.Adapter)(nil)
var _ ports.Aligner = (*whispercpp.Adapter)(nil)
