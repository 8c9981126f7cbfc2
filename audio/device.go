package audio

import (
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"murmur/ring"
)

// pollInterval bounds how long the pull side waits when the ring is
// momentarily empty. Hardware buffers arrive every ~21ms at the default
// geometry, so 2ms keeps latency negligible without spinning.
const pollInterval = 2 * time.Millisecond

// Device owns a capture device and the bounded frame buffer that decouples
// the hardware delivery context from the processing loop. The hardware
// callback's only operation is a non-blocking ring push; rejected pushes are
// counted and exposed through Dropped.
type Device struct {
	capture CaptureDevice
	buf     *ring.Buffer[Frame]
	dropped atomic.Uint64

	mu      sync.Mutex
	started bool
}

// NewDevice opens a capture device for the given config and wires its
// callback into a fresh ring buffer. The returned Device is not started.
func NewDevice(ctx Context, info *DeviceInfo, cfg Config) (*Device, error) {
	capture, err := ctx.NewCapture(info, CaptureConfig{
		SampleRate:   uint32(cfg.SampleRate),
		Channels:     uint32(cfg.Channels),
		BufferFrames: uint32(cfg.BufferFrames),
	})
	if err != nil {
		return nil, fmt.Errorf("opening capture: %w", err)
	}

	d := &Device{
		capture: capture,
		buf:     ring.New[Frame](cfg.RingFrames),
	}
	capture.SetCallback(func(samples []float32, frameCount uint32) {
		ok := d.buf.Push(Frame{
			Samples:    samples,
			Channels:   cfg.Channels,
			SampleRate: cfg.SampleRate,
		})
		if !ok {
			d.dropped.Add(1)
		}
	})
	return d, nil
}

// Start begins capture. Calling Start on a started device is a no-op.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}
	if err := d.capture.Start(); err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}
	d.started = true
	return nil
}

// Stop halts capture. Calling Stop on a stopped device is a no-op.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return
	}
	d.capture.Stop()
	d.started = false
}

// Close stops the device and releases the backend handle.
func (d *Device) Close() {
	d.Stop()
	d.capture.ClearCallback()
	d.capture.Close()
}

// Name returns the backend's name for the capture device.
func (d *Device) Name() string {
	return d.capture.DeviceName()
}

// Dropped returns the total number of frames rejected because the ring was
// full. The counter is monotonic; consumers surface deltas.
func (d *Device) Dropped() uint64 {
	return d.dropped.Load()
}

// Buffered returns the number of frames waiting in the ring.
func (d *Device) Buffered() int {
	return d.buf.Len()
}

// Frames returns the device's frame sequence: ordered, effectively
// infinite, terminating only when stop closes or the caller breaks out.
// When the ring is momentarily empty the iterator waits briefly rather than
// ending, so a quiet ring never terminates the stream.
func (d *Device) Frames(stop <-chan struct{}) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for {
			select {
			case <-stop:
				return
			default:
			}
			frame, ok := d.buf.Pop()
			if !ok {
				select {
				case <-stop:
					return
				case <-time.After(pollInterval):
				}
				continue
			}
			if !yield(frame) {
				return
			}
		}
	}
}
