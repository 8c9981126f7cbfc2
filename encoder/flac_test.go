package encoder

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"murmur/audio"
)

func toneFrame(n int) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/48000))
	}
	return audio.Frame{Samples: samples, Channels: 1, SampleRate: 48000}
}

func TestFlacWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.flac")
	w, err := CreateFlac(path, 48000, 1)
	if err != nil {
		t.Fatalf("CreateFlac: %v", err)
	}

	var fed uint64
	for i := 0; i < 10; i++ {
		f := toneFrame(1024)
		if err := w.Write(f); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
		fed += uint64(len(f.Samples))
	}
	if w.SamplesWritten() != fed {
		t.Errorf("SamplesWritten = %d, want %d", w.SamplesWritten(), fed)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacWriterPartialBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.flac")
	w, err := CreateFlac(path, 48000, 1)
	if err != nil {
		t.Fatalf("CreateFlac: %v", err)
	}

	// Less than one block; everything flushes on Close.
	if err := w.Write(toneFrame(blockSize / 4)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.SamplesWritten() != blockSize/4 {
		t.Errorf("SamplesWritten = %d, want %d", w.SamplesWritten(), blockSize/4)
	}
}

func TestFlacWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.flac")
	w, err := CreateFlac(path, 48000, 1)
	if err != nil {
		t.Fatalf("CreateFlac: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.Write(toneFrame(16)); err == nil {
		t.Error("Write after Close succeeded")
	}
}

func TestFlacRejectsStereo(t *testing.T) {
	if _, err := CreateFlac(filepath.Join(t.TempDir(), "out.flac"), 48000, 2); err == nil {
		t.Error("CreateFlac accepted stereo")
	}
}

func TestQuantizeClamps(t *testing.T) {
	if got := quantize(1.5); got != 32767 {
		t.Errorf("quantize(1.5) = %d, want 32767", got)
	}
	if got := quantize(-1.5); got != -32768 {
		t.Errorf("quantize(-1.5) = %d, want -32768", got)
	}
	if got := quantize(0); got != 0 {
		t.Errorf("quantize(0) = %d, want 0", got)
	}
}
