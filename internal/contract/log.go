package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(NewLogger(os.Stderr, slog.LevelWarn))
}

// NewLogger creates a text logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetLogger replaces the process logger used by the Log helpers.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// ParseLogLevel converts a level name into a slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
}

// LevelFromString converts a level name into a slog.Level, defaulting to warn.
func LevelFromString(s string) slog.Level {
	level, _ := ParseLogLevel(s)
	return level
}

// LogFatal prints an error line to stderr and exits the program. The
// prefix is colored only when stderr is a terminal.
func LogFatal(msg string, err error) {
	writeFatal(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), msg, err)
	os.Exit(1)
}

func writeFatal(w io.Writer, colored bool, msg string, err error) {
	prefix := color.New(color.FgRed, color.Bold)
	if colored {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}
	if err != nil {
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", prefix.Sprint("fatal:"), msg, err)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", prefix.Sprint("fatal:"), msg)
}

// LogWarn logs a recoverable problem. Messages stay plain text so the
// handler never has to quote escape sequences.
func LogWarn(msg string, err error) {
	l := logger.Load()
	if err != nil {
		l.Warn(msg, "error", err)
		return
	}
	l.Warn(msg)
}

// LogInfo logs a progress or skip message.
func LogInfo(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}
