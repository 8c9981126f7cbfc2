package transcribe

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"murmur/audio"
)

func frame(n, rate int) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.25
	}
	return audio.Frame{Samples: samples, Channels: 1, SampleRate: rate}
}

func TestNewNullDefault(t *testing.T) {
	eng, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := eng.(Null); !ok {
		t.Fatalf("default engine = %T, want Null", eng)
	}
	if text, ok := eng.Transcribe(frame(16, 48000)); ok || text != "" {
		t.Error("null engine yielded text")
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(Config{Backend: "onnx"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestNewHTTPRequiresEndpoint(t *testing.T) {
	if _, err := New(Config{Backend: "http"}); err == nil {
		t.Error("http backend without endpoint accepted")
	}
}

func TestFakeScripted(t *testing.T) {
	f := &Fake{Script: []string{"hello", "world"}, Every: 3}

	var got []string
	for i := 0; i < 9; i++ {
		if text, ok := f.Transcribe(frame(16, 48000)); ok {
			got = append(got, text)
		}
	}
	if len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Errorf("scripted output = %v, want [hello world]", got)
	}
	if f.Calls() != 9 {
		t.Errorf("Calls = %d, want 9", f.Calls())
	}
}

func TestHTTPPostsWindow(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad form", 400)
			return
		}
		data, _ := io.ReadAll(file)
		select {
		case received <- data:
		default:
		}
		json.NewEncoder(w).Encode(map[string]string{"text": " take a note "})
	}))
	defer srv.Close()

	eng, err := New(Config{Endpoint: srv.URL, Model: "whisper-1", WindowSeconds: 0.05})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	// 0.05s at 8kHz = 400 samples per window.
	var text string
	var ok bool
	deadline := time.After(5 * time.Second)
	for !ok {
		text, ok = eng.Transcribe(frame(100, 8000))
		select {
		case <-deadline:
			t.Fatal("no transcription result before deadline")
		case <-time.After(time.Millisecond):
		}
	}
	if text != "take a note" {
		t.Errorf("text = %q, want %q", text, "take a note")
	}

	wav := <-received
	if len(wav) < 44 || string(wav[0:4]) != "RIFF" {
		t.Fatal("posted payload is not a WAV file")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 8000 {
		t.Errorf("posted sample rate = %d, want 8000", rate)
	}
}

func TestEncodeWAVClamps(t *testing.T) {
	data := encodeWAV([]float32{2.0, -2.0}, 16000)
	if len(data) != 44+4 {
		t.Fatalf("len = %d, want 48", len(data))
	}
	if got := int16(binary.LittleEndian.Uint16(data[44:46])); got != 32767 {
		t.Errorf("sample 0 = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[46:48])); got != -32768 {
		t.Errorf("sample 1 = %d, want -32768", got)
	}
}
