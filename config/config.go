// Package config loads the daemon configuration from a YAML file,
// applying defaults for anything left unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"murmur/transcribe"
)

// Config is the complete daemon configuration.
type Config struct {
	Audio         AudioConfig       `yaml:"audio"`
	VAD           VADConfig         `yaml:"vad"`
	Transcription transcribe.Config `yaml:"transcription"`
	OutputDir     string            `yaml:"output_dir"`
	LogDir        string            `yaml:"log_dir"`
}

// AudioConfig describes the capture format and buffering.
type AudioConfig struct {
	SampleRate   int    `yaml:"sample_rate"`
	Channels     int    `yaml:"channels"`
	BitDepth     int    `yaml:"bit_depth"`
	BufferFrames int    `yaml:"buffer_frames"` // samples per device callback
	RingFrames   int    `yaml:"ring_frames"`   // capacity of the capture ring
	Format       string `yaml:"format"`        // "wav" or "flac"
	Device       string `yaml:"device"`        // capture device id, default device when empty
}

// VADConfig configures the voice activity gate.
type VADConfig struct {
	Backend   string  `yaml:"backend"` // "energy" or "webrtc"
	Threshold float64 `yaml:"threshold"`
	Mode      int     `yaml:"mode"` // webrtc aggressiveness 0-3
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:   48000,
			Channels:     1,
			BitDepth:     32,
			BufferFrames: 1024,
			RingFrames:   64,
			Format:       "wav",
		},
		VAD: VADConfig{
			Backend: "energy",
		},
	}
}

// Load reads path and merges it over the defaults. An empty path yields
// the defaults unchanged; a named path must exist, so a typoed -config
// argument fails loudly instead of silently running on defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run
// with.
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}
	return nil
}

// Validate validates the audio section.
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", a.SampleRate)
	}
	if a.Channels != 1 && a.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", a.Channels)
	}
	if a.BitDepth != 32 {
		return fmt.Errorf("bit_depth must be 32 (float samples), got %d", a.BitDepth)
	}
	if a.BufferFrames < 64 || a.BufferFrames > 16384 {
		return fmt.Errorf("buffer_frames must be between 64 and 16384, got %d", a.BufferFrames)
	}
	if a.RingFrames < 2 {
		return fmt.Errorf("ring_frames must be at least 2, got %d", a.RingFrames)
	}
	if a.Format != "wav" && a.Format != "flac" {
		return fmt.Errorf("format must be 'wav' or 'flac', got %q", a.Format)
	}
	return nil
}

// Validate validates the vad section.
func (v *VADConfig) Validate() error {
	switch v.Backend {
	case "", "energy", "webrtc":
	default:
		return fmt.Errorf("backend must be 'energy' or 'webrtc', got %q", v.Backend)
	}
	if v.Threshold < 0 || v.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %f", v.Threshold)
	}
	if v.Mode < 0 || v.Mode > 3 {
		return fmt.Errorf("mode must be between 0 and 3, got %d", v.Mode)
	}
	return nil
}
