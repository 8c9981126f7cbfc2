package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"murmur/audio"
	"murmur/session"
	"murmur/telemetry"
	"murmur/transcribe"
	"murmur/vad"
)

func TestFindDevice(t *testing.T) {
	ctx := audio.NewFakeContext(nil, false)

	byID, err := findDevice(ctx, "fake0")
	if err != nil || byID.ID != "fake0" {
		t.Fatalf("find by id: %v, %v", byID, err)
	}

	byName, err := findDevice(ctx, "FAK")
	if err != nil || byName.ID != "fake0" {
		t.Fatalf("find by name fragment: %v, %v", byName, err)
	}

	_, err = findDevice(ctx, "studio mic")
	if !errors.Is(err, audio.ErrDeviceNotFound) {
		t.Fatalf("missing device error = %v", err)
	}
}

func testController(t *testing.T, out *bytes.Buffer) *session.Controller {
	t.Helper()
	return session.NewController(session.Options{
		OutputRoot: t.TempDir(),
		SampleRate: 48000,
		Channels:   1,
		VAD:        vad.Config{Backend: "energy"},
		NewEngine: func(transcribe.Config) (transcribe.Engine, error) {
			return transcribe.Null{}, nil
		},
	}, telemetry.NewEmitter(out))
}

func TestCommandLoopDispatch(t *testing.T) {
	var out bytes.Buffer
	c := testController(t, &out)
	em := telemetry.NewEmitter(&out)

	input := "STATUS\nFROB\n\n  STATUS  \nKILL\nSTATUS\n"
	commandLoop(bufio.NewScanner(strings.NewReader(input)), c, em)

	lines := out.String()
	if got := strings.Count(lines, `"evt":"status"`); got != 2 {
		t.Errorf("status events = %d, want 2 (post-KILL input ignored): %q", got, lines)
	}
	if !strings.Contains(lines, `"body":"Unknown command: FROB"`) {
		t.Errorf("missing unknown-command event: %q", lines)
	}
	select {
	case <-c.Done():
	default:
		t.Error("KILL did not mark controller done")
	}
}

func TestCommandLoopStartArgument(t *testing.T) {
	var out bytes.Buffer
	c := testController(t, &out)
	em := telemetry.NewEmitter(&out)

	dir := t.TempDir()
	input := "START " + dir + "\nSTOP\nKILL\n"
	commandLoop(bufio.NewScanner(strings.NewReader(input)), c, em)

	if !strings.Contains(out.String(), `"path":"`+telemetry.Escape(dir)) {
		t.Errorf("session not created under %q: %q", dir, out.String())
	}
	if !strings.Contains(out.String(), `"action":"end"`) {
		t.Errorf("session not finalized: %q", out.String())
	}
}

func TestCommandLoopEOFShutsDown(t *testing.T) {
	var out bytes.Buffer
	c := testController(t, &out)
	em := telemetry.NewEmitter(&out)

	commandLoop(bufio.NewScanner(strings.NewReader("STATUS\n")), c, em)

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("EOF did not shut the controller down")
	}
}
