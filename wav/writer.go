// Package wav writes audio to a RIFF/WAVE container incrementally: a
// provisional header at create time, raw samples appended per frame, and the
// size fields patched when the writer is closed. Samples are stored as
// 32-bit IEEE float PCM, matching the capture format, so no conversion
// happens on the write path.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"murmur/audio"
)

const (
	headerSize    = 44
	bitsPerSample = 32
	formatFloat   = 3 // WAVE_FORMAT_IEEE_FLOAT
)

// header mirrors the canonical 44-byte PCM WAV header layout.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16
	AudioFormat   uint16  // 3 for IEEE float
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// Writer appends float32 samples to a WAV file. Not safe for concurrent
// use; the session controller serializes access.
type Writer struct {
	f              *os.File
	samplesWritten uint64
	closed         bool
}

// Create opens path and writes a provisional header with zeroed size
// fields. The header is finalized by Close.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating wav file: %w", err)
	}

	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   formatFloat,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * bitsPerSample / 8,
		BlockAlign:    uint16(channels) * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("encoding wav header: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing wav header: %w", err)
	}

	return &Writer{f: f}, nil
}

// Write appends the frame's samples. It fails once the writer is closed.
func (w *Writer) Write(frame audio.Frame) error {
	if w.closed {
		return fmt.Errorf("wav writer is closed")
	}
	buf := make([]byte, len(frame.Samples)*4)
	for i, s := range frame.Samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	w.samplesWritten += uint64(len(frame.Samples))
	return nil
}

// Close patches the header size fields from the final sample count, flushes
// and closes the file. It always attempts finalization so a partial file is
// never left with a corrupt header. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	dataSize := uint32(w.samplesWritten * 4)
	var sizes [4]byte

	binary.LittleEndian.PutUint32(sizes[:], headerSize-8+dataSize)
	if _, err := w.f.WriteAt(sizes[:], 4); err != nil {
		w.f.Close()
		return fmt.Errorf("patching riff size: %w", err)
	}
	binary.LittleEndian.PutUint32(sizes[:], dataSize)
	if _, err := w.f.WriteAt(sizes[:], 40); err != nil {
		w.f.Close()
		return fmt.Errorf("patching data size: %w", err)
	}

	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("flushing wav file: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("closing wav file: %w", err)
	}
	return nil
}

// SamplesWritten returns the number of samples appended so far. Monotonic.
func (w *Writer) SamplesWritten() uint64 {
	return w.samplesWritten
}

// SampleBytes returns the on-disk width of one sample.
func (w *Writer) SampleBytes() int {
	return 4
}
