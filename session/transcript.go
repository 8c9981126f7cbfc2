package session

import (
	"fmt"
	"os"
)

// Transcript appends recognized text segments to a markdown file. Each
// append is flushed to disk so a reader tailing the file sees segments
// as they arrive.
type Transcript struct {
	f      *os.File
	closed bool
}

// CreateTranscript creates the transcript file and writes its heading.
func CreateTranscript(path, id string) (*Transcript, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}
	if _, err := fmt.Fprintf(f, "# Recording Session: %s\n\n---\n\n", id); err != nil {
		f.Close()
		return nil, fmt.Errorf("write transcript heading: %w", err)
	}
	return &Transcript{f: f}, nil
}

// Append writes a segment followed by a space and syncs the file.
func (t *Transcript) Append(text string) error {
	if t.closed {
		return fmt.Errorf("transcript closed")
	}
	if _, err := t.f.WriteString(text + " "); err != nil {
		return fmt.Errorf("append transcript: %w", err)
	}
	if err := t.f.Sync(); err != nil {
		return fmt.Errorf("sync transcript: %w", err)
	}
	return nil
}

// Close is idempotent.
func (t *Transcript) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.f.Close()
}
