// Package encoder provides the FLAC alternative to the WAV session
// container. Captured float32 samples are quantized to 16-bit and written
// as fixed-size verbatim-prediction FLAC frames, streamed straight to the
// session file.
package encoder

import (
	"fmt"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"murmur/audio"
)

const (
	blockSize     = 4096
	bitsPerSample = 16
)

type FlacWriter struct {
	f              *os.File
	enc            *flac.Encoder
	sampleRate     int
	pending        []int32 // samples waiting for a full block
	samplesWritten uint64
	closed         bool
}

// CreateFlac opens path and writes the FLAC stream header. Only mono
// streams are supported, matching the capture pipeline.
func CreateFlac(path string, sampleRate, channels int) (*FlacWriter, error) {
	if channels != 1 {
		return nil, fmt.Errorf("flac container supports mono only, got %d channels", channels)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating flac file: %w", err)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  blockSize,
		BlockSizeMax:  blockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     1,
		BitsPerSample: bitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)

	return &FlacWriter{f: f, enc: enc, sampleRate: sampleRate}, nil
}

func quantize(s float32) int32 {
	v := int32(s * 32767)
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}

// Write appends the frame's samples, emitting a FLAC frame whenever a full
// block has accumulated.
func (e *FlacWriter) Write(fr audio.Frame) error {
	if e.closed {
		return fmt.Errorf("flac writer is closed")
	}
	for _, s := range fr.Samples {
		e.pending = append(e.pending, quantize(s))
	}
	for len(e.pending) >= blockSize {
		if err := e.encodeBlock(e.pending[:blockSize]); err != nil {
			return err
		}
		e.pending = e.pending[blockSize:]
	}
	e.samplesWritten += uint64(len(fr.Samples))
	return nil
}

func (e *FlacWriter) encodeBlock(block []int32) error {
	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred: frame.PredVerbatim,
		},
		Samples:  block,
		NSamples: len(block),
	}
	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    uint32(e.sampleRate),
			Channels:      frame.ChannelsMono,
			BitsPerSample: bitsPerSample,
		},
		Subframes: []*frame.Subframe{subframe},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	return nil
}

// Close flushes any partial block, finalizes the stream and closes the
// file. Closing twice is a no-op.
func (e *FlacWriter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if len(e.pending) > 0 {
		if err := e.encodeBlock(e.pending); err != nil {
			e.enc.Close()
			e.f.Close()
			return err
		}
		e.pending = nil
	}
	if err := e.enc.Close(); err != nil {
		e.f.Close()
		return fmt.Errorf("finalizing flac stream: %w", err)
	}
	if err := e.f.Close(); err != nil {
		return fmt.Errorf("closing flac file: %w", err)
	}
	return nil
}

// SamplesWritten returns the number of samples accepted so far. Monotonic.
func (e *FlacWriter) SamplesWritten() uint64 {
	return e.samplesWritten
}

// SampleBytes returns the decoded width of one sample.
func (e *FlacWriter) SampleBytes() int {
	return 2
}
