// Package log writes daemon diagnostics to a file via zerolog. Diagnostics
// are strictly separate from the telemetry channel on stdout: nothing here
// may ever print where the supervising process parses JSON lines.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	dir      string
)

// ResolveDir picks the diagnostics directory: the -logpath flag wins, then
// the MURMUR_LOG_PATH environment variable, then the OS cache location.
func ResolveDir(flagPath string) (string, error) {
	resolve := func(p string) (string, error) {
		if filepath.IsAbs(p) {
			return p, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, p), nil
	}

	if flagPath != "" {
		return resolve(flagPath)
	}
	if envPath := os.Getenv("MURMUR_LOG_PATH"); envPath != "" {
		return resolve(envPath)
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "murmur"), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	f, err := os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	diagFile = f

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", os.Getpid()).Logger()

	logReady = true
	return nil
}

// SetVerbose lowers the global level floor to debug.
func SetVerbose(v bool) {
	if v {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records a new recording session in the diagnostics log.
func SessionStart(id, path, container string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("id", id).
		Str("path", path).
		Str("container", container).
		Msg("session_start")
}

// SessionEnd records a finished session with its write totals.
func SessionEnd(id string, bytes uint64, durationS int64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("id", id).
		Uint64("bytes", bytes).
		Int64("duration_s", durationS).
		Msg("session_end")
}

// DroppedFrames records frames rejected by the capture ring, with the
// ring occupancy at report time: a full ring points at a stalled consumer.
func DroppedFrames(delta, total uint64, buffered int) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Uint64("delta", delta).
		Uint64("total", total).
		Int("buffered", buffered).
		Msg("dropped_frames")
}
