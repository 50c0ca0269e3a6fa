package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/pipeline"
	"reelforge/internal/types"
)

func run(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out")
	backgrounds, _ := cmd.Flags().GetString("backgrounds")
	configPath, _ := cmd.Flags().GetString("config")
	voice, _ := cmd.Flags().GetString("voice")
	workers, _ := cmd.Flags().GetInt("workers")
	deterministic, _ := cmd.Flags().GetBool("deterministic")
	ffmpegPath, _ := cmd.Flags().GetString("ffmpeg")
	ffprobePath, _ := cmd.Flags().GetString("ffprobe")
	ttsBin, _ := cmd.Flags().GetString("tts-bin")
	whisperBin, _ := cmd.Flags().GetString("whisper-bin")
	whisperModel, _ := cmd.Flags().GetString("whisper-model")

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	scripts, err := readScripts(args, voice)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg := pipeline.Config{
		Scripts:        scripts,
		OutDir:         outDir,
		BackgroundGlob: backgrounds,
		Workers:        workers,
		Deterministic:  deterministic,
		Logf: func(format string, args ...any) {
			fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
		},
		Settings:     settings,
		FFmpegPath:   ffmpegPath,
		FFprobePath:  ffprobePath,
		WhisperBin:   whisperBin,
		WhisperModel: whisperModel,
		KokoroBin:    ttsBin,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	outcomes, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(outcomes))

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed == len(outcomes) {
		return errors.New("all reels failed")
	}
	if failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d reels failed\n", failed, len(outcomes))
	}
	return nil
}

// readScripts loads each script file: the file name (sans extension) becomes
// the title, the contents the narration text.
func readScripts(paths []string, voice string) ([]types.Script, error) {
	scripts := make([]types.Script, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read script: %w", err)
		}
		title := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		scripts = append(scripts, types.Script{
			Title: title,
			Text:  strings.TrimSpace(string(b)),
			Voice: voice,
		})
	}
	return scripts, nil
}
