package transcribe

import "murmur/audio"

// Fake is a scripted engine for tests: it yields the next scripted segment
// every Every calls.
type Fake struct {
	Script []string
	Every  int

	calls  int
	next   int
	closed bool
}

func (f *Fake) Transcribe(audio.Frame) (string, bool) {
	f.calls++
	if f.Every <= 0 || f.calls%f.Every != 0 || f.next >= len(f.Script) {
		return "", false
	}
	text := f.Script[f.next]
	f.next++
	return text, true
}

func (f *Fake) Close() error {
	f.closed = true
	return nil
}

// Calls returns how many frames were fed.
func (f *Fake) Calls() int { return f.calls }

// Closed reports whether Close was called.
func (f *Fake) Closed() bool { return f.closed }
