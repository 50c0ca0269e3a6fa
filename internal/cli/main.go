package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "reelforge <script>...",
		Short:        "Render narrated vertical reels from text scripts",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().String("out", "output", "Output directory")
	root.Flags().String("backgrounds", "videos/*.mp4", "Background clip glob")
	root.Flags().String("config", "", "YAML config file")
	root.Flags().String("voice", "neutral", "Voice profile")
	root.Flags().Int("workers", 2, "Concurrent reels")
	root.Flags().Bool("deterministic", false, "Reproducible background selection")

	// Tool paths (internal tuning)
	root.Flags().String("ffmpeg", "ffmpeg", "ffmpeg binary")
	root.Flags().String("ffprobe", "ffprobe", "ffprobe binary")
	root.Flags().String("tts-bin", "kokoro-tts", "TTS binary")
	root.Flags().String("whisper-bin", ".cache/bin/whisper.cpp", "whisper.cpp binary")
	root.Flags().String("whisper-model", ".cache/models/ggml-base.en.bin", "whisper.cpp model")
	for _, f := range []string{"ffmpeg", "ffprobe", "tts-bin", "whisper-bin", "whisper-model"} {
		_ = root.Flags().MarkHidden(f)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
