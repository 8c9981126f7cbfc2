// Package audio abstracts microphone capture. A backend Context enumerates
// devices and opens CaptureDevices that deliver 32-bit float PCM through a
// data callback; Device turns that callback into an ordered pull-based frame
// sequence decoupled by a bounded ring buffer.
package audio

import (
	"errors"
	"strings"
	"sync/atomic"
)

// callbackHolder lets backends swap the data callback without taking a lock
// in the delivery context.
type callbackHolder = atomic.Pointer[DataCallback]

// Sentinel backend errors. Backends wrap driver failures around these so
// callers can classify open errors without knowing the driver.
var (
	ErrDeviceNotFound    = errors.New("capture device not found")
	ErrFormatUnsupported = errors.New("sample format unsupported")
)

// Frame is one time-sliced block of captured samples. It is immutable once
// produced; the Samples slice is owned by the frame.
type Frame struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Config describes the capture format and the derived buffer geometry.
type Config struct {
	SampleRate   int
	Channels     int
	BufferFrames int // samples delivered per hardware callback
	BitDepth     int
	RingFrames   int // ring buffer capacity in frames
}

// BufferSizeBytes returns the size of one hardware buffer in bytes.
func (c Config) BufferSizeBytes() int {
	return c.BufferFrames * c.Channels * c.BitDepth / 8
}

// BufferDurationMS returns the duration of one hardware buffer in
// milliseconds.
func (c Config) BufferDurationMS() float64 {
	return float64(c.BufferFrames) / float64(c.SampleRate) * 1000
}

// DataCallback receives one hardware buffer of samples. The callback takes
// ownership of the slice; backends allocate a fresh slice per delivery.
type DataCallback func(samples []float32, frameCount uint32)

type CaptureConfig struct {
	SampleRate   uint32
	Channels     uint32
	BufferFrames uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name whether a capture device is a
// Bluetooth headset, which typically records at reduced quality.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
