// ABOUTME: Persisted click mute configuration
// ABOUTME: YAML load/save with defaults and validation
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is where the configuration lives unless overridden
const DefaultFilename = "click_mute.yaml"

var (
	// ErrNotFinite rejects NaN and infinite delays
	ErrNotFinite = errors.New("delay values must be finite")
	// ErrFadeTooShort rejects fades that round to zero samples
	ErrFadeTooShort = errors.New("fade must be at least one sample long")
	// ErrNegativeDuration rejects negative mute durations
	ErrNegativeDuration = errors.New("mute duration must not be negative")
)

// Delays holds the timing parameters, all in seconds
type Delays struct {
	// MuteOffset is added to the click time to find the mute start.
	// Negative values start muting before the click and set the delay.
	MuteOffset float64 `yaml:"mute_offset"`
	// MuteDuration is how long muting lasts past the click
	MuteDuration float64 `yaml:"mute_duration"`
	// Fade is the length of the fade in and out
	Fade float64 `yaml:"fade"`
}

// Config is the persisted state
type Config struct {
	Delays Delays `yaml:"delays"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Delays: Delays{
			MuteOffset:   -0.04,
			MuteDuration: 0.08,
			Fade:         0.01,
		},
	}
}

// DelaySeconds is how far the signal is delayed so muting can begin
// before the click is reported
func (d Delays) DelaySeconds() float64 {
	return math.Max(0, -d.MuteOffset)
}

// DelaySamples is the delay line length at rate, at least one
func (d Delays) DelaySamples(rate float64) int {
	return max(1, int(d.DelaySeconds()*rate))
}

// FadeSamples is the fade length at rate
func (d Delays) FadeSamples(rate float64) int {
	return int(d.Fade * rate)
}

// Validate checks the delays can be applied at the given sample rate
func (d Delays) Validate(rate float64) error {
	for _, v := range []float64{d.MuteOffset, d.MuteDuration, d.Fade} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNotFinite
		}
	}
	if d.MuteDuration < 0 {
		return ErrNegativeDuration
	}
	if d.FadeSamples(rate) <= 0 {
		return fmt.Errorf("%w: %.4fs at %.0f Hz", ErrFadeTooShort, d.Fade, rate)
	}
	return nil
}

// Validate checks the whole configuration
func (c Config) Validate(rate float64) error {
	return c.Delays.Validate(rate)
}

// Load reads the configuration. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	logrus.WithField("path", path).Info("Loaded config")
	return cfg, nil
}

// Save writes the configuration atomically through a temporary file
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}

	logrus.WithField("path", path).Info("Saved config")
	return nil
}
