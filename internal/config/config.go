package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"reelforge/internal/domain/captions"
	"reelforge/internal/retry"
	"reelforge/internal/types"
)

// Config holds every tunable of the pipeline. Defaults reproduce the
// original production values; a YAML file overrides any subset of them.
type Config struct {
	WordsPerMinute          float64 `yaml:"words_per_minute"`
	SelectionPaddingSeconds float64 `yaml:"selection_padding_seconds"`
	Aspect                  string  `yaml:"aspect"`

	Captions CaptionsConfig         `yaml:"captions"`
	Audio    AudioConfig            `yaml:"audio"`
	Retry    RetryConfig            `yaml:"retry"`
	Voices   map[string]VoiceConfig `yaml:"voices"`
	Censor   []captions.Rule        `yaml:"caption_censoring"`
}

type CaptionsConfig struct {
	MaxLines          int     `yaml:"max_lines"`
	MaxLineChars      int     `yaml:"max_line_chars"`
	MaxWindowSeconds  float64 `yaml:"max_window_seconds"`
	SilenceGapSeconds float64 `yaml:"silence_gap_seconds"`
	DelaySeconds      float64 `yaml:"delay_seconds"`

	Style StyleConfig `yaml:"style"`
}

type StyleConfig struct {
	Font          string `yaml:"font"`
	Size          int    `yaml:"size"`
	PrimaryColour string `yaml:"primary_colour"`
	BackColour    string `yaml:"back_colour"`
	Bold          bool   `yaml:"bold"`
	Outline       int    `yaml:"outline"`
	Shadow        int    `yaml:"shadow"`
	Alignment     int    `yaml:"alignment"`
	MarginL       int    `yaml:"margin_l"`
	MarginR       int    `yaml:"margin_r"`
	MarginV       int    `yaml:"margin_v"`
	PlayResX      int    `yaml:"play_res_x"`
	PlayResY      int    `yaml:"play_res_y"`
}

type AudioConfig struct {
	NarrationGain float64 `yaml:"narration_gain"`
	DuckLevel     float64 `yaml:"duck_level"`
}

type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts"`
	BaseDelaySeconds float64 `yaml:"base_delay_seconds"`
	MaxDelaySeconds  float64 `yaml:"max_delay_seconds"`
	Jitter           float64 `yaml:"jitter"`
}

type VoiceConfig struct {
	Voice string  `yaml:"voice"`
	Speed float64 `yaml:"speed"`
}

func Default() Config {
	return Config{
		WordsPerMinute:          165,
		SelectionPaddingSeconds: 12,
		Aspect:                  "9:16",
		Captions: CaptionsConfig{
			MaxLines:          2,
			MaxLineChars:      24,
			MaxWindowSeconds:  3.5,
			SilenceGapSeconds: 1.5,
			DelaySeconds:      0.1,
			Style: StyleConfig{
				Font:          "Segoe UI Emoji",
				Size:          150,
				PrimaryColour: "&H00FFFFFF",
				BackColour:    "&H64000000",
				Bold:          true,
				Outline:       15,
				Shadow:        1,
				Alignment:     5,
				MarginL:       150,
				MarginR:       150,
				MarginV:       200,
				PlayResX:      1080,
				PlayResY:      1920,
			},
		},
		Audio: AudioConfig{NarrationGain: 1.5, DuckLevel: 0.1},
		Retry: RetryConfig{MaxAttempts: 3, BaseDelaySeconds: 2, MaxDelaySeconds: 30, Jitter: 0.2},
		Voices: map[string]VoiceConfig{
			"neutral": {Voice: "af_heart", Speed: 1.0},
			"female":  {Voice: "af_heart", Speed: 1.1},
			"male":    {Voice: "am_michael", Speed: 1.05},
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.WordsPerMinute <= 0 {
		return fmt.Errorf("words_per_minute must be > 0")
	}
	if c.Captions.MaxLines <= 0 || c.Captions.MaxLineChars <= 0 {
		return fmt.Errorf("caption line limits must be > 0")
	}
	if _, _, err := c.AspectRatio(); err != nil {
		return err
	}
	return nil
}

// Voice resolves a profile name, defaulting unknown names to "neutral".
func (c Config) Voice(name string) types.VoiceProfile {
	vc, ok := c.Voices[name]
	if !ok {
		vc = c.Voices["neutral"]
		name = "neutral"
	}
	return types.VoiceProfile{Name: name, Voice: vc.Voice, Speed: vc.Speed}
}

func (c Config) CaptionLimits() captions.Limits {
	return captions.Limits{
		MaxLines:     c.Captions.MaxLines,
		MaxLineChars: c.Captions.MaxLineChars,
		MaxWindow:    seconds(c.Captions.MaxWindowSeconds),
		SilenceGap:   seconds(c.Captions.SilenceGapSeconds),
		Delay:        seconds(c.Captions.DelaySeconds),
	}
}

func (c Config) CaptionStyle() captions.Style {
	s := c.Captions.Style
	return captions.Style{
		FontName:      s.Font,
		FontSize:      s.Size,
		PrimaryColour: s.PrimaryColour,
		BackColour:    s.BackColour,
		Bold:          s.Bold,
		Outline:       s.Outline,
		Shadow:        s.Shadow,
		Alignment:     s.Alignment,
		MarginL:       s.MarginL,
		MarginR:       s.MarginR,
		MarginV:       s.MarginV,
		PlayResX:      s.PlayResX,
		PlayResY:      s.PlayResY,
	}
}

func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   seconds(c.Retry.BaseDelaySeconds),
		MaxDelay:    seconds(c.Retry.MaxDelaySeconds),
		Jitter:      c.Retry.Jitter,
	}
}

func (c Config) SelectionPadding() time.Duration {
	return seconds(c.SelectionPaddingSeconds)
}

// AspectRatio parses the "W:H" aspect string.
func (c Config) AspectRatio() (int, int, error) {
	parts := strings.SplitN(c.Aspect, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("aspect %q: want W:H", c.Aspect)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("aspect %q: %w", c.Aspect, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("aspect %q: %w", c.Aspect, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("aspect %q: dimensions must be positive", c.Aspect)
	}
	return w, h, nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
