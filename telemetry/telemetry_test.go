package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEscape(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{`a"b`, `a\"b`},
		{`a\b`, `a\\b`},
		{"\n", `\n`},
		{"\t", `\t`},
		{"\r", `\r`},
		{"\x01", `\u0001`},
		{"hello\"world", `hello\"world`},
		{"hello\\world", `hello\\world`},
		{"hello\nworld", `hello\nworld`},
		{"hello\tworld", `hello\tworld`},
		{"", ""},
		{"héllo", "héllo"}, // multibyte passes through
	}
	for _, c := range cases {
		if got := Escape(c.in); got != c.want {
			t.Errorf("Escape(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func newTestEmitter(buf *bytes.Buffer) *Emitter {
	e := NewEmitter(buf)
	e.now = func() int64 { return 1700000000 }
	return e
}

func TestEventLines(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Status("recording")
	e.Error(`disk "full"`)
	e.Info("Audio device started")
	e.Level(-32.04)
	e.Text("take a note")
	e.SessionStart("20240101_120000", "/tmp/rec/20240101_120000")
	e.SessionEnd("20240101_120000", 192000, 61*time.Second)
	e.Heartbeat("idle")

	want := []string{
		`{"evt":"status","state":"recording","ts":1700000000}`,
		`{"evt":"err","body":"disk \"full\"","ts":1700000000}`,
		`{"evt":"info","body":"Audio device started","ts":1700000000}`,
		`{"evt":"level","db":-32.0,"ts":1700000000}`,
		`{"evt":"txt","body":"take a note","ts":1700000000}`,
		`{"evt":"session","action":"start","id":"20240101_120000","path":"/tmp/rec/20240101_120000","ts":1700000000}`,
		`{"evt":"session","action":"end","id":"20240101_120000","bytes":192000,"duration":61,"ts":1700000000}`,
		`{"evt":"heartbeat","state":"idle","ts":1700000000}`,
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("emitted %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, got[i], want[i])
		}
	}
}

// Every emitted line must be valid standalone JSON, including ones carrying
// escaped control bytes.
func TestLinesAreValidJSON(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	e.Error("tab\there\nnewline \x01 control \\ quote \"")
	e.Text("plain")
	e.Status("paused")

	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var decoded map[string]any
		if err := json.Unmarshal(sc.Bytes(), &decoded); err != nil {
			t.Errorf("line %q is not valid JSON: %v", sc.Text(), err)
		}
		if _, ok := decoded["evt"]; !ok {
			t.Errorf("line %q has no evt field", sc.Text())
		}
	}
}

func TestConcurrentEmitsDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEmitter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.Level(-20)
			}
		}()
	}
	wg.Wait()

	sc := bufio.NewScanner(&buf)
	lines := 0
	for sc.Scan() {
		lines++
		var decoded map[string]any
		if err := json.Unmarshal(sc.Bytes(), &decoded); err != nil {
			t.Fatalf("corrupt line %q: %v", sc.Text(), err)
		}
	}
	if lines != 400 {
		t.Errorf("got %d lines, want 400", lines)
	}
}
