package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/neurlang/spectrobox/render"
	"github.com/neurlang/spectrobox/spectrogram"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate and Load for unusable settings.
var ErrInvalid = errors.New("invalid config")

// Render holds the image layout. Sizes are in inches and points.
type Render struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	DPI      int     `yaml:"dpi"`
	FontSize float64 `yaml:"font_size"`
	FreqMax  float64 `yaml:"freq_max"`
	FreqStep float64 `yaml:"freq_step"`
}

// Config holds all batch settings.
type Config struct {
	STFT    spectrogram.Params `yaml:"stft"`
	Render  Render             `yaml:"render"`
	Workers int                `yaml:"workers"` // 0 means one per CPU, below 0 means 1
	Raw     bool               `yaml:"raw"`     // also write .f16 matrices
}

// Default returns the built in settings.
func Default() Config {
	return Config{
		STFT: spectrogram.NewParams(),
		Render: Render{
			Width:    10,
			Height:   4,
			DPI:      150,
			FontSize: 8,
			FreqMax:  24000,
			FreqStep: 2000,
		},
		Workers: 1,
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the SPECTROBOX_* variables that are set and parse.
func (cfg *Config) ApplyEnv() {
	cfg.STFT.FFTSize = envInt("SPECTROBOX_FFT_SIZE", cfg.STFT.FFTSize)
	cfg.STFT.HopSize = envInt("SPECTROBOX_HOP_SIZE", cfg.STFT.HopSize)
	cfg.STFT.WindowSize = envInt("SPECTROBOX_WINDOW_SIZE", cfg.STFT.WindowSize)
	cfg.Render.DPI = envInt("SPECTROBOX_DPI", cfg.Render.DPI)
	cfg.Workers = envInt("SPECTROBOX_WORKERS", cfg.Workers)
	cfg.Raw = envBool("SPECTROBOX_RAW", cfg.Raw)
}

// Validate reports the first unusable setting.
func (cfg Config) Validate() error {
	if _, err := cfg.STFT.Resolve(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	r := cfg.Render
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: image size %gx%g", ErrInvalid, r.Width, r.Height)
	case r.DPI <= 0:
		return fmt.Errorf("%w: dpi %d", ErrInvalid, r.DPI)
	case r.FontSize <= 0:
		return fmt.Errorf("%w: font size %g", ErrInvalid, r.FontSize)
	case r.FreqMax <= 0 || r.FreqStep <= 0:
		return fmt.Errorf("%w: frequency axis %g step %g", ErrInvalid, r.FreqMax, r.FreqStep)
	}
	return nil
}

// Style converts the render settings into a render.Style.
func (r Render) Style() render.Style {
	s := render.DefaultStyle()
	s.Width = vg.Length(r.Width) * vg.Inch
	s.Height = vg.Length(r.Height) * vg.Inch
	s.DPI = r.DPI
	s.FontSize = vg.Points(r.FontSize)
	s.FreqMax = r.FreqMax
	s.FreqTicks = render.FrequencyTicks(r.FreqMax, r.FreqStep)
	return s
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
