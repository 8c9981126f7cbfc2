// Package transcribe defines the speech-recognition capability the session
// controller consumes: feed a frame, maybe get text back. Concrete engines
// are external; the core passes their configuration through unmodified.
package transcribe

import (
	"fmt"

	"murmur/audio"
)

// Engine consumes voiced frames and occasionally yields recognized text.
// Implementations may hold rolling context across calls. Transcribe must
// never block; recognition that takes longer than a frame is handed back on
// a later call.
type Engine interface {
	Transcribe(f audio.Frame) (text string, ok bool)
	Close() error
}

// Config is the recognized-options bag for engine construction. The core
// does not interpret fields beyond Backend; everything else belongs to the
// selected backend.
type Config struct {
	Backend       string  `yaml:"backend"` // "null", "http"
	Endpoint      string  `yaml:"endpoint"`
	APIKey        string  `yaml:"api_key"`
	Model         string  `yaml:"model"`
	Language      string  `yaml:"language"`
	WindowSeconds float64 `yaml:"window_seconds"`
}

// New returns an owned engine instance for cfg. With no backend configured
// the null engine is returned, so a session can always be created.
func New(cfg Config) (Engine, error) {
	switch cfg.Backend {
	case "null":
		return Null{}, nil
	case "http":
		return newHTTP(cfg)
	case "":
		if cfg.Endpoint != "" {
			return newHTTP(cfg)
		}
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unknown transcription backend %q", cfg.Backend)
	}
}

// Null is the no-op engine: it accepts every frame and never yields text.
type Null struct{}

func (Null) Transcribe(audio.Frame) (string, bool) { return "", false }
func (Null) Close() error                          { return nil }
