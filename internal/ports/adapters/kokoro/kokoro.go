// Package kokoro shells out to a Kokoro-style TTS CLI:
//
//	kokoro-tts <text file> <out wav> --voice <id> --speed <multiplier>
package kokoro

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"reelforge/internal/types"
)

type Adapter struct {
	bin string
}

func New(binPath string) *Adapter {
	if binPath == "" {
		binPath = "kokoro-tts"
	}
	return &Adapter{bin: binPath}
}

func (a *Adapter) Synthesize(ctx context.Context, text string, voice types.VoiceProfile, outWav string) error {
	if strings.TrimSpace(text) == "" {
		return types.Inputf("empty narration text")
	}

	// The CLI reads from a file; long scripts do not survive argv.
	textPath := outWav + ".txt"
	if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write narration text: %w", err)
	}
	defer os.Remove(textPath)

	speed := voice.Speed
	if speed <= 0 {
		speed = 1.0
	}
	// Synthesize into a sibling temp path so a killed run never leaves a
	// half-written wav behind the cache key.
	tmpWav := outWav + ".partial"
	args := []string{
		textPath,
		tmpWav,
		"--voice", voice.Voice,
		"--speed", strconv.FormatFloat(speed, 'f', 2, 64),
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(tmpWav)
		return &types.CapabilityError{Capability: "kokoro", Transient: true,
			Err: fmt.Errorf("%w\n%s", err, string(b))}
	}
	if err := os.Rename(tmpWav, outWav); err != nil {
		return fmt.Errorf("promote narration wav: %w", err)
	}
	return nil
}
