package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveDirFlagWins(t *testing.T) {
	t.Setenv("MURMUR_LOG_PATH", "/env/path")
	got, err := ResolveDir("/flag/path")
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	if got != "/flag/path" {
		t.Errorf("ResolveDir = %q, want /flag/path", got)
	}
}

func TestResolveDirEnvFallback(t *testing.T) {
	t.Setenv("MURMUR_LOG_PATH", "/env/path")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	if got != "/env/path" {
		t.Errorf("ResolveDir = %q, want /env/path", got)
	}
}

func TestResolveDirRelativeFlag(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatalf("ResolveDir: %v", err)
	}
	wd, _ := os.Getwd()
	if got != filepath.Join(wd, "logs") {
		t.Errorf("ResolveDir = %q, want %q", got, filepath.Join(wd, "logs"))
	}
}

func TestInitWritesDiagnostics(t *testing.T) {
	SetDir(t.TempDir())
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("hello diagnostics")
	Warnf("warn %d", 42)
	Close()

	data, err := os.ReadFile(filepath.Join(Dir(), "diagnostics_log.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello diagnostics") {
		t.Error("info message not written")
	}
	if !strings.Contains(string(data), "warn 42") {
		t.Error("warn message not written")
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	Close()
	Info("dropped")
	Errorf("also dropped: %v", "x")
}
