package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/ports"
	"reelforge/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &types.CapabilityError{Capability: "ffprobe", Transient: false,
			Err: fmt.Errorf("duration of %s: %w\n%s", path, err, string(b))}
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (a *Adapter) ProbeClip(ctx context.Context, path string) (types.BackgroundClip, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height:format=duration",
		"-of", "json",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.BackgroundClip{}, &types.CapabilityError{Capability: "ffprobe", Transient: false,
			Err: fmt.Errorf("probe %s: %w\n%s", path, err, string(b))}
	}
	var po probeOutput
	if err := json.Unmarshal(b, &po); err != nil {
		return types.BackgroundClip{}, fmt.Errorf("parse probe of %s: %w", path, err)
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(po.Format.Duration), 64)
	if err != nil {
		return types.BackgroundClip{}, fmt.Errorf("parse probe duration %q: %w", po.Format.Duration, err)
	}
	clip := types.BackgroundClip{Path: path, Duration: time.Duration(sec * float64(time.Second))}
	for _, s := range po.Streams {
		switch s.CodecType {
		case "video":
			clip.Width, clip.Height = s.Width, s.Height
		case "audio":
			clip.HasAudio = true
		}
	}
	return clip, nil
}

// Compose renders one reel in a single pass: cut the background window, crop
// to the target aspect, burn the captions, duck the background under the
// narration, and trim everything to the narration's duration.
func (a *Adapter) Compose(ctx context.Context, job ports.ComposeJob) error {
	args := []string{
		"-y",
		"-ss", fmtSeconds(job.Offset),
		"-t", fmtSeconds(job.Duration),
		"-i", job.BackgroundPath,
		"-i", job.NarrationWav,
		"-filter_complex", buildFilterGraph(job),
		"-map", "[v]",
		"-map", "[a]",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-ar", "48000",
		"-movflags", "+faststart",
		"-map_metadata", "-1",
		"-t", fmtSeconds(job.Duration),
		job.OutPath,
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return &types.CompositionError{Err: fmt.Errorf("ffmpeg: %w\n%s", err, string(b))}
	}
	return nil
}

// buildFilterGraph assembles the crop/overlay/mix graph. The crop keeps the
// shorter dimension intact and center-crops the longer one, so the subject is
// never stretched.
func buildFilterGraph(job ports.ComposeJob) string {
	var parts []string
	crop := fmt.Sprintf(
		"[0:v]crop='min(iw,ih*%d/%d)':'min(ih,iw*%d/%d)':(iw-ow)/2:(ih-oh)/2",
		job.AspectW, job.AspectH, job.AspectH, job.AspectW,
	)
	if job.SubtitleASS != "" {
		crop += ",subtitles=" + escapeFilterPath(job.SubtitleASS)
	}
	parts = append(parts, crop+"[v]")

	narr := fmt.Sprintf("[1:a]volume=%s[narr]", fmtGain(job.NarrationGain))
	parts = append(parts, narr)
	if job.BackgroundHasAudio {
		parts = append(parts,
			fmt.Sprintf("[0:a]volume=%s[bg]", fmtGain(job.DuckLevel)),
			"[narr][bg]amix=inputs=2:duration=first:dropout_transition=2[a]",
		)
	} else {
		parts = append(parts, "[narr]anull[a]")
	}
	return strings.Join(parts, ";")
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func fmtGain(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	return p
}
