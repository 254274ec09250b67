// Package eventlog writes the append-only activity log. Every line has the
// form "[<RFC 3339 timestamp>] <message>".
package eventlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFileName is the log file name used beside the executable
const DefaultFileName = "dupcleaner.log"

// Logger is safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	mu     sync.Mutex
	zl     zerolog.Logger
	closer io.Closer
}

// New creates a Logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{zl: newZerolog(w)}
}

// Discard returns a Logger that drops every line
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Open opens (or creates) the log file for appending. When mirror is not
// nil every line is copied to it as well. If the file cannot be opened the
// returned Logger still works, writing to mirror only, and the error is
// returned so the caller can report it.
func Open(path string, mirror io.Writer) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		if mirror != nil {
			return New(mirror), fmt.Errorf("failed to open log file: %w", err)
		}
		return Discard(), fmt.Errorf("failed to open log file: %w", err)
	}

	var out io.Writer = file
	if mirror != nil {
		out = io.MultiWriter(file, mirror)
	}

	return &Logger{zl: newZerolog(out), closer: file}, nil
}

// DefaultPath returns the log path beside the running executable, falling
// back to the working directory
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

func newZerolog(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("[%v]", i)
		},
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// Printf appends one formatted line
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl.Log().Msgf(format, args...)
}

// Close closes the underlying file, if any
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.closer.Close()
	l.closer = nil
	l.zl = zerolog.Nop()
	return err
}
