package transcribe

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"murmur/audio"
)

const (
	defaultWindowSeconds = 3.0
	requestTimeout       = 15 * time.Second
)

// HTTP posts windows of voiced audio to an OpenAI-compatible transcription
// endpoint. Frames accumulate into a rolling window; when the window fills
// and no request is in flight, the window is WAV-encoded and posted on a
// background goroutine. Transcribe never blocks: completed results are
// returned on a subsequent call.
type HTTP struct {
	endpoint string
	apiKey   string
	model    string
	language string
	windowMs int
	window   int // samples per posted window, resolved from the first frame

	client  *http.Client
	ctx     context.Context
	cancel  context.CancelFunc
	pending []float32
	results chan string
	busy    chan struct{} // holds a token while a request is in flight
}

func newHTTP(cfg Config) (*HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("http transcription backend requires an endpoint")
	}
	windowSeconds := cfg.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = defaultWindowSeconds
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &HTTP{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		language: cfg.Language,
		client:   &http.Client{Timeout: requestTimeout},
		ctx:      ctx,
		cancel:   cancel,
		results:  make(chan string, 4),
		busy:     make(chan struct{}, 1),
		windowMs: int(windowSeconds * 1000),
	}
	return h, nil
}

func (h *HTTP) Transcribe(f audio.Frame) (string, bool) {
	if h.window == 0 {
		h.window = f.SampleRate * h.windowMs / 1000
	}
	h.pending = append(h.pending, f.Samples...)

	if len(h.pending) >= h.window {
		select {
		case h.busy <- struct{}{}:
			chunk := make([]float32, len(h.pending))
			copy(chunk, h.pending)
			h.pending = h.pending[:0]
			go h.post(chunk, f.SampleRate)
		default:
			// Previous request still in flight; keep accumulating but cap
			// the backlog at two windows so a stalled endpoint cannot grow
			// memory without bound.
			if len(h.pending) > 2*h.window {
				h.pending = h.pending[len(h.pending)-2*h.window:]
			}
		}
	}

	select {
	case text := <-h.results:
		return text, true
	default:
		return "", false
	}
}

func (h *HTTP) post(samples []float32, sampleRate int) {
	defer func() { <-h.busy }()

	text, err := h.request(samples, sampleRate)
	if err != nil || strings.TrimSpace(text) == "" {
		return
	}
	select {
	case h.results <- strings.TrimSpace(text):
	case <-h.ctx.Done():
	}
}

func (h *HTTP) request(samples []float32, sampleRate int) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(encodeWAV(samples, sampleRate)); err != nil {
		return "", err
	}
	if h.model != "" {
		writer.WriteField("model", h.model)
	}
	writer.WriteField("response_format", "json")
	if h.language != "" {
		writer.WriteField("language", h.language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(h.ctx, "POST", h.endpoint, &body)
	if err != nil {
		return "", err
	}
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("transcription response parse error: %w", err)
	}
	return parsed.Text, nil
}

// Close cancels any in-flight request. Buffered audio below one window is
// discarded.
func (h *HTTP) Close() error {
	h.cancel()
	return nil
}

// encodeWAV packs float32 samples into an in-memory 16-bit PCM mono WAV,
// the format transcription endpoints accept universally.
func encodeWAV(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		v := int32(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(int16(v)))
	}
	return buf
}
