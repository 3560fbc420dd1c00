// Package logger holds the process-wide structured logger used by the row
// cache, providers and tools. Output is discarded until Init enables it.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// L is the global logger. It discards everything until Init is called.
var L = discard()

const (
	logPrefix     = "dualview-"
	logSuffix     = ".log"
	dateLayout    = "2006-01-02"
	retentionDays = 30
)

var (
	mu   sync.Mutex
	file io.Closer // log file opened by the last Init, if any
)

// Options configures the logger.
type Options struct {
	Enabled bool       // false discards all output
	LogDir  string     // daily JSON files go here; default ~/.dualview/logs
	Writer  io.Writer  // if set, text records go here instead of a file
	Level   slog.Level // default LevelInfo
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// Init replaces the global logger and closes the file of a previous Init.
// Call it from main before logging.
func Init(opts Options) error {
	h, f, err := newHandler(opts, time.Now())
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	L, file = slog.New(h), f
	return nil
}

// newHandler builds the handler for opts. The returned closer is the log
// file, nil when logging goes elsewhere.
func newHandler(opts Options, now time.Time) (slog.Handler, io.Closer, error) {
	if !opts.Enabled {
		return discard().Handler(), nil, nil
	}
	ho := &slog.HandlerOptions{Level: opts.Level}
	if opts.Writer != nil {
		return slog.NewTextHandler(opts.Writer, ho), nil, nil
	}

	dir := opts.LogDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, err
		}
		dir = filepath.Join(home, ".dualview", "logs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	cleanOldLogs(dir, now)

	f, err := os.OpenFile(filepath.Join(dir, logName(now)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.NewJSONHandler(f, ho), f, nil
}

func logName(day time.Time) string { return logPrefix + day.Format(dateLayout) + logSuffix }

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// cleanOldLogs removes daily files older than retentionDays. Errors are
// ignored.
func cleanOldLogs(dir string, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	for _, e := range entries {
		day, ok := strings.CutPrefix(e.Name(), logPrefix)
		if !ok {
			continue
		}
		day, ok = strings.CutSuffix(day, logSuffix)
		if !ok {
			continue
		}
		if t, err := time.Parse(dateLayout, day); err == nil && t.Before(cutoff) {
			os.Remove(filepath.Join(dir, e.Name()))
		}
	}
}

// Scope logs with a fixed set of leading attributes, e.g. the name of a
// view. It reads L on every call, so a Scope made before Init follows the
// logger Init installs.
type Scope struct {
	attrs []any
}

// With returns a Scope carrying the key-value pairs args.
func With(args ...any) Scope { return Scope{attrs: args} }

func (s Scope) args(args []any) []any {
	if len(s.attrs) == 0 {
		return args
	}
	return append(slices.Clip(s.attrs), args...)
}

// Debug logs at debug level with the scope's attributes first.
func (s Scope) Debug(msg string, args ...any) { L.Debug(msg, s.args(args)...) }

// Info logs at info level with the scope's attributes first.
func (s Scope) Info(msg string, args ...any) { L.Info(msg, s.args(args)...) }

// Warn logs at warn level with the scope's attributes first.
func (s Scope) Warn(msg string, args ...any) { L.Warn(msg, s.args(args)...) }

// Error logs at error level with the scope's attributes first.
func (s Scope) Error(msg string, args ...any) { L.Error(msg, s.args(args)...) }

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
