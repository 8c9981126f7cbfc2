package audio

import (
	"sync"
	"time"
)

// FakeContext is a test backend that replays a prepared PCM buffer through
// the capture callback, optionally pacing delivery at the real hardware
// rate.
type FakeContext struct {
	pcm      []float32
	realtime bool
}

func NewFakeContext(pcm []float32, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, config: config}, nil
}

type FakeCapture struct {
	pcm      []float32
	realtime bool
	config   CaptureConfig
	cb       callbackHolder

	mu       sync.Mutex
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) SetCallback(cb DataCallback) { f.cb.Store(&cb) }
func (f *FakeCapture) ClearCallback()              { f.cb.Store(nil) }

func (f *FakeCapture) feedChunk(cb DataCallback, pos, chunk int) int {
	end := min(pos+chunk, len(f.pcm))
	samples := make([]float32, end-pos)
	copy(samples, f.pcm[pos:end])
	cb(samples, uint32(len(samples)/int(f.config.Channels)))
	return end
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopCh != nil {
		return nil
	}
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunk := int(f.config.BufferFrames) * int(f.config.Channels)
	interval := time.Duration(f.config.BufferFrames) * time.Second / time.Duration(f.config.SampleRate)

	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]float32, chunk)
		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			cb := f.cb.Load()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if pos < len(f.pcm) {
				pos = f.feedChunk(*cb, pos, chunk)
			} else {
				(*cb)(silence, f.config.BufferFrames)
			}

			if f.realtime {
				select {
				case <-f.stopCh:
					return
				case <-time.After(interval):
				}
			} else if pos >= len(f.pcm) {
				// Exhausted, non-realtime: trickle silence slowly so
				// consumers are not flooded.
				select {
				case <-f.stopCh:
					return
				case <-time.After(time.Millisecond):
				}
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
	f.stopCh = nil
}

func (f *FakeCapture) Close() { f.Stop() }
