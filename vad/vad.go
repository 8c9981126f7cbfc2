// Package vad classifies frames as speech or silence to gate the
// transcription engine. Two backends: a deterministic short-term-energy
// classifier and the WebRTC VAD with debounce and hang-over. Detectors are
// driven from the audio-processing goroutine only and hold no locks.
package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"murmur/audio"
)

const (
	vadFrameMs  = 20
	vadDebounce = 3  // consecutive speech sub-frames to arm the gate
	vadHangover = 25 // sub-frames (~500ms) the gate stays open after speech
)

// Detector reports whether a frame contains voice activity. Reset clears
// any rolling state so a detector can be reused across sessions.
type Detector interface {
	Detect(f audio.Frame) bool
	Reset()
}

// Config selects and tunes a detector backend.
type Config struct {
	Backend   string  // "energy" or "webrtc"
	Threshold float64 // energy backend: linear RMS threshold
	Mode      int     // webrtc backend: aggressiveness 0-3
}

// New returns the configured detector. A webrtc backend that fails to
// initialize is reported as an error; callers may fall back to energy.
func New(cfg Config) (Detector, error) {
	switch cfg.Backend {
	case "", "energy":
		threshold := cfg.Threshold
		if threshold == 0 {
			threshold = defaultEnergyThreshold
		}
		return Energy{Threshold: threshold}, nil
	case "webrtc":
		return NewWebRTC(cfg.Mode)
	default:
		return nil, fmt.Errorf("unknown vad backend %q", cfg.Backend)
	}
}

const defaultEnergyThreshold = 0.01

// Energy classifies on short-term RMS energy. Stateless and deterministic.
type Energy struct {
	Threshold float64
}

func (e Energy) Detect(f audio.Frame) bool {
	return audio.EnergyVAD(f, e.Threshold)
}

// Reset is a no-op: the energy classifier carries no state.
func (Energy) Reset() {}

// WebRTC wraps the WebRTC voice activity detector. Captured float32 frames
// are quantized to 16-bit and re-sliced into 20ms sub-frames, the only
// geometry the detector accepts. Three consecutive speech sub-frames arm
// the gate; it stays armed for a short hang-over after speech stops so
// word boundaries are not clipped.
type WebRTC struct {
	vad *webrtcvad.VAD

	buf       []byte // pending bytes below one sub-frame
	speechRun int
	silence   int
	active    bool
}

func NewWebRTC(mode int) (*WebRTC, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("webrtcvad init: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("webrtcvad mode %d: %w", mode, err)
	}
	return &WebRTC{vad: v}, nil
}

func (w *WebRTC) Detect(f audio.Frame) bool {
	for _, s := range f.Samples {
		v := int32(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		w.buf = append(w.buf, byte(uint16(v)), byte(uint16(v)>>8))
	}

	subFrameBytes := f.SampleRate * vadFrameMs / 1000 * 2
	for len(w.buf) >= subFrameBytes {
		sub := w.buf[:subFrameBytes]
		w.buf = w.buf[subFrameBytes:]

		active, err := w.vad.Process(f.SampleRate, sub)
		if err != nil {
			continue
		}
		if active {
			w.speechRun++
			w.silence = 0
			if w.speechRun >= vadDebounce {
				w.active = true
			}
		} else {
			w.speechRun = 0
			w.silence++
			if w.silence >= vadHangover {
				w.active = false
			}
		}
	}
	return w.active
}

// Reset clears detector state between sessions.
func (w *WebRTC) Reset() {
	w.buf = w.buf[:0]
	w.speechRun = 0
	w.silence = 0
	w.active = false
}
