package trancebox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Config holds the engine settings that are fixed for the lifetime of an
	// engine. It is usually read from a .yml file on top of DefaultConfig.
	Config struct {
		SampleRate int `yaml:"samplerate"`
		// BlockSize is the maximum number of frames rendered at once; longer
		// device requests are split into blocks.
		BlockSize int `yaml:"blocksize"`
		// DeviceBuffer is the buffer length requested from the audio device.
		DeviceBuffer time.Duration `yaml:"devicebuffer"`
		// Lookahead is how far ahead of the render position step boundaries
		// are scheduled.
		Lookahead time.Duration `yaml:"lookahead"`
		// Smoothing is the ramp time of parameter changes.
		Smoothing time.Duration `yaml:"smoothing"`
		// FastRelease is the release time used when the transport stops.
		FastRelease time.Duration `yaml:"fastrelease"`
		// PadVoices is the polyphony of the chord track.
		PadVoices int `yaml:"padvoices"`

		FeedInterval time.Duration `yaml:"feedinterval"`
		FeedBuckets  int           `yaml:"feedbuckets"`

		// Params are initial parameter values by path, e.g.
		// "filter.cutoff: 800". They are applied in path order and validated
		// like any other parameter change.
		Params map[string]string `yaml:"params,omitempty"`
		// Patterns replace the built-in pattern of a track.
		Patterns map[string]PatternConfig `yaml:"patterns,omitempty"`
	}

	// PatternConfig is the yaml form of a Pattern. Steps use the syntax of
	// ParseStep.
	PatternConfig struct {
		Division Division `yaml:"division"`
		Gate     Division `yaml:"gate"`
		Steps    []string `yaml:"steps,flow"`
	}
)

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		BlockSize:    256,
		DeviceBuffer: 50 * time.Millisecond,
		Lookahead:    100 * time.Millisecond,
		Smoothing:    20 * time.Millisecond,
		FastRelease:  10 * time.Millisecond,
		PadVoices:    16,
		FeedInterval: 100 * time.Millisecond,
		FeedBuckets:  32,
	}
}

// ParseConfig reads yaml on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("could not parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadConfigFile reads a .yml config file on top of the defaults.
func ReadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config %v: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%v: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that all sizes and durations are usable.
func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("samplerate must be positive, got %v", c.SampleRate)
	case c.BlockSize <= 0:
		return fmt.Errorf("blocksize must be positive, got %v", c.BlockSize)
	case c.DeviceBuffer <= 0:
		return fmt.Errorf("devicebuffer must be positive, got %v", c.DeviceBuffer)
	case c.Lookahead < 0:
		return fmt.Errorf("lookahead must not be negative, got %v", c.Lookahead)
	case c.Smoothing < 0:
		return fmt.Errorf("smoothing must not be negative, got %v", c.Smoothing)
	case c.FastRelease <= 0:
		return fmt.Errorf("fastrelease must be positive, got %v", c.FastRelease)
	case c.PadVoices <= 0:
		return fmt.Errorf("padvoices must be positive, got %v", c.PadVoices)
	case c.FeedInterval <= 0:
		return fmt.Errorf("feedinterval must be positive, got %v", c.FeedInterval)
	case c.FeedBuckets <= 0:
		return fmt.Errorf("feedbuckets must be positive, got %v", c.FeedBuckets)
	}
	return nil
}

// Frames converts a duration to a whole number of frames at the configured
// sample rate.
func (c *Config) Frames(d time.Duration) int {
	return int(d.Seconds()*float64(c.SampleRate) + 0.5)
}
