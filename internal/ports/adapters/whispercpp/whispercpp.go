package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reelforge/internal/domain/timing"
	"reelforge/internal/types"
)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// whisper.cpp -oj output, with -ml 1 -sow so each segment is one word.
type transcriptJSON struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

// Align runs whisper.cpp over the wav and returns per-word spans. A
// non-empty referenceText is passed as the decoding prompt, which biases the
// model toward the known transcript and keeps hallucinated words out.
func (a *Adapter) Align(ctx context.Context, wavPath, referenceText, workDir string) (types.Alignment, error) {
	outPrefix := filepath.Join(workDir, "align")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
		"-ml", "1",
		"-sow",
	}
	if referenceText != "" {
		args = append(args, "--prompt", referenceText)
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Alignment{}, &types.CapabilityError{Capability: "whisper.cpp", Transient: true,
			Err: fmt.Errorf("%w\n%s", err, string(b))}
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Alignment{}, fmt.Errorf("read alignment output: %w", err)
	}
	var tr transcriptJSON
	if err := json.Unmarshal(jb, &tr); err != nil {
		return types.Alignment{}, fmt.Errorf("parse alignment output: %w", err)
	}

	words := make([]types.Word, 0, len(tr.Transcription))
	for _, seg := range tr.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		words = append(words, types.Word{
			Text:  text,
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
		})
	}
	normalized, clamped := timing.Normalize(words)
	return types.Alignment{Words: normalized, Clamped: clamped}, nil
}
