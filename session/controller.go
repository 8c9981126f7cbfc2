package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"murmur/audio"
	"murmur/encoder"
	"murmur/log"
	"murmur/telemetry"
	"murmur/transcribe"
	"murmur/vad"
	"murmur/wav"
)

// State is the controller's lifecycle state. Error is terminal and only
// reached when the capture device fails at startup.
type State int32

const (
	Idle State = iota
	Recording
	Paused
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// levelEvery is the frame decimation for level telemetry: one level
// event per this many processed frames.
const levelEvery = 5

// AudioWriter is the container-format sink a session records into.
// Both the WAV and FLAC writers satisfy it.
type AudioWriter interface {
	Write(audio.Frame) error
	Close() error
	SamplesWritten() uint64
	SampleBytes() int
}

// Options configures a Controller. NewEngine and NewWriter are test
// seams; when nil the real transcription and container factories are
// used.
type Options struct {
	OutputRoot string // default parent dir for sessions, cwd/recordings when empty
	Container  string // "wav" or "flac"
	SampleRate int
	Channels   int
	VAD        vad.Config
	Engine     transcribe.Config

	NewEngine func(transcribe.Config) (transcribe.Engine, error)
	NewWriter func(path string, sampleRate, channels int) (AudioWriter, error)
}

// Controller owns the session lifecycle. All transitions and frame
// processing go through one mutex; state is additionally kept in an
// atomic so Status and loop checks never contend with a write in
// flight.
type Controller struct {
	opts    Options
	emitter *telemetry.Emitter

	state atomic.Int32

	mu       sync.Mutex
	session  *session
	detector vad.Detector

	done     chan struct{}
	doneOnce sync.Once
}

type session struct {
	id         string
	dir        string
	started    time.Time
	writer     AudioWriter
	engine     transcribe.Engine
	transcript *Transcript
	frames     uint64
}

func NewController(opts Options, em *telemetry.Emitter) *Controller {
	if opts.Container == "" {
		opts.Container = "wav"
	}
	if opts.NewEngine == nil {
		opts.NewEngine = transcribe.New
	}
	if opts.NewWriter == nil {
		opts.NewWriter = newWriter(opts.Container)
	}
	return &Controller{opts: opts, emitter: em, done: make(chan struct{})}
}

func newWriter(container string) func(string, int, int) (AudioWriter, error) {
	if container == "flac" {
		return func(path string, rate, channels int) (AudioWriter, error) {
			return encoder.CreateFlac(path, rate, channels)
		}
	}
	return func(path string, rate, channels int) (AudioWriter, error) {
		return wav.Create(path, rate, channels)
	}
}

// State reads the current state without taking the controller lock.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Done is closed once Kill has been processed.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// SetError moves the controller into the terminal Error state.
func (c *Controller) SetError() {
	c.state.Store(int32(Error))
}

// Start begins a new session under outputDir, or under the configured
// root when outputDir is empty. While a session exists the request is
// rejected with an error event.
func (c *Controller) Start(outputDir string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.emitter.Error("Already recording")
		return
	}

	root := outputDir
	if root == "" {
		root = c.opts.OutputRoot
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			c.emitter.Error("Failed to resolve working directory: " + err.Error())
			return
		}
		root = filepath.Join(wd, "recordings")
	}

	id := GenerateID()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.emitter.Error("Failed to create session directory: " + err.Error())
		return
	}

	audioPath := filepath.Join(dir, id+"."+c.opts.Container)
	writer, err := c.opts.NewWriter(audioPath, c.opts.SampleRate, c.opts.Channels)
	if err != nil {
		c.emitter.Error("Failed to create audio file: " + err.Error())
		return
	}

	transcript, err := CreateTranscript(filepath.Join(dir, id+".md"), id)
	if err != nil {
		writer.Close()
		c.emitter.Error("Failed to create transcript: " + err.Error())
		return
	}

	engine, err := c.opts.NewEngine(c.opts.Engine)
	if err != nil {
		transcript.Close()
		writer.Close()
		c.emitter.Error("Failed to start transcription: " + err.Error())
		return
	}

	// One detector serves the controller's lifetime; its rolling state is
	// cleared so one session's speech never arms the next session's gate.
	if c.detector == nil {
		detector, err := vad.New(c.opts.VAD)
		if err != nil {
			log.Warnf("voice detector %q unavailable, using energy: %v", c.opts.VAD.Backend, err)
			detector, _ = vad.New(vad.Config{Backend: "energy", Threshold: c.opts.VAD.Threshold})
		}
		c.detector = detector
	} else {
		c.detector.Reset()
	}

	c.session = &session{
		id:         id,
		dir:        dir,
		started:    time.Now(),
		writer:     writer,
		engine:     engine,
		transcript: transcript,
	}
	c.state.Store(int32(Recording))

	log.SessionStart(id, dir, c.opts.Container)
	c.emitter.SessionStart(id, dir)
	c.emitter.Status(Recording.String())
}

// Stop finalizes the current session and returns to Idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	s := c.session
	if s == nil {
		c.emitter.Error("Not recording")
		return
	}

	duration := time.Since(s.started)
	if err := s.writer.Close(); err != nil {
		log.Errorf("finalize audio file: %v", err)
	}
	if err := s.transcript.Close(); err != nil {
		log.Errorf("close transcript: %v", err)
	}
	if err := s.engine.Close(); err != nil {
		log.Errorf("close transcription engine: %v", err)
	}

	bytes := s.writer.SamplesWritten() * uint64(s.writer.SampleBytes())
	c.session = nil
	c.state.Store(int32(Idle))

	log.SessionEnd(s.id, bytes, int64(duration/time.Second))
	c.emitter.SessionEnd(s.id, bytes, duration)
	c.emitter.Status(Idle.String())
}

// Pause suspends recording without closing the session's files.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if State(c.state.Load()) != Recording {
		c.emitter.Error("Not recording")
		return
	}
	c.state.Store(int32(Paused))
	c.emitter.Status(Paused.String())
}

// Resume continues a paused session.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if State(c.state.Load()) != Paused {
		c.emitter.Error("Not paused")
		return
	}
	c.state.Store(int32(Recording))
	c.emitter.Status(Recording.String())
}

// Status reports the current state as a status event.
func (c *Controller) Status() {
	c.emitter.Status(c.State().String())
}

// Kill finalizes any live session and marks the controller done. Safe
// to call more than once.
func (c *Controller) Kill() {
	c.mu.Lock()
	if c.session != nil {
		c.stopLocked()
	}
	c.mu.Unlock()

	c.doneOnce.Do(func() {
		c.emitter.Info("Shutting down")
		close(c.done)
	})
}

// ProcessFrame records one frame into the live session: container
// write, level telemetry every few frames, and voice-gated
// transcription. Frames arriving while not Recording are discarded.
// A write error is returned to the caller; the session stays open.
func (c *Controller) ProcessFrame(f audio.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || State(c.state.Load()) != Recording {
		return nil
	}

	if err := s.writer.Write(f); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	// The very first frame emits a level, then every fifth after it.
	if s.frames%levelEvery == 0 {
		c.emitter.Level(audio.DBLevel(f))
	}
	s.frames++

	if c.detector.Detect(f) {
		if text, ok := s.engine.Transcribe(f); ok {
			c.emitter.Text(text)
			if err := s.transcript.Append(text); err != nil {
				log.Errorf("transcript append: %v", err)
			}
		}
	}
	return nil
}
