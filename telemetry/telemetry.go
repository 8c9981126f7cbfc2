// Package telemetry serializes daemon events as one JSON object per line
// for a supervising process. The field layout is a wire contract; lines are
// built by hand so escaping stays byte-exact, and a single mutex keeps
// events from interleaving across goroutines.
package telemetry

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Emitter writes line-delimited telemetry events to w.
type Emitter struct {
	mu  sync.Mutex
	w   io.Writer
	now func() int64
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w, now: func() int64 { return time.Now().Unix() }}
}

func (e *Emitter) emit(line string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintln(e.w, line)
}

// Status reports the current recording state.
func (e *Emitter) Status(state string) {
	e.emit(fmt.Sprintf(`{"evt":"status","state":"%s","ts":%d}`, Escape(state), e.now()))
}

// Error reports a non-fatal error condition.
func (e *Emitter) Error(msg string) {
	e.emit(fmt.Sprintf(`{"evt":"err","body":"%s","ts":%d}`, Escape(msg), e.now()))
}

// Info reports an informational message.
func (e *Emitter) Info(msg string) {
	e.emit(fmt.Sprintf(`{"evt":"info","body":"%s","ts":%d}`, Escape(msg), e.now()))
}

// Level reports the loudness of the current audio in dBFS.
func (e *Emitter) Level(db float64) {
	e.emit(fmt.Sprintf(`{"evt":"level","db":%.1f,"ts":%d}`, db, e.now()))
}

// Text reports a recognized transcription segment.
func (e *Emitter) Text(text string) {
	e.emit(fmt.Sprintf(`{"evt":"txt","body":"%s","ts":%d}`, Escape(text), e.now()))
}

// SessionStart reports that a recording session began.
func (e *Emitter) SessionStart(id, path string) {
	e.emit(fmt.Sprintf(`{"evt":"session","action":"start","id":"%s","path":"%s","ts":%d}`,
		Escape(id), Escape(path), e.now()))
}

// SessionEnd reports that a session ended, with the total audio bytes
// written and the session duration in whole seconds.
func (e *Emitter) SessionEnd(id string, bytes uint64, duration time.Duration) {
	e.emit(fmt.Sprintf(`{"evt":"session","action":"end","id":"%s","bytes":%d,"duration":%d,"ts":%d}`,
		Escape(id), bytes, int64(duration.Seconds()), e.now()))
}

// Heartbeat is a periodic liveness signal carrying the current state.
func (e *Emitter) Heartbeat(state string) {
	e.emit(fmt.Sprintf(`{"evt":"heartbeat","state":"%s","ts":%d}`, Escape(state), e.now()))
}
