// Package log provides the debug logger used across prfiles.
//
// Messages written before a destination is configured are buffered, so that
// git queries issued during flag and config processing are not lost once
// --debug-log (or the debug_log config key) is known.
package log

import (
	"io"
	"log"
	"os"
	"sync"
)

// DebugLogger is an io.Writer that sends log lines to a file, a buffer, or nowhere.
type DebugLogger struct {
	mu      sync.Mutex
	out     io.Writer
	closer  io.Closer
	buffer  []byte
	discard bool
}

var (
	globalDebugLogger = &DebugLogger{}
	stdLogger         = log.New(globalDebugLogger, "prfiles: ", log.LstdFlags|log.Lmicroseconds)
)

// Write implements io.Writer.
func (l *DebugLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.discard {
		return len(p), nil
	}

	if l.out != nil {
		n, err := l.out.Write(p)
		if f, ok := l.out.(*os.File); ok {
			_ = f.Sync()
		}
		return n, err
	}

	// p may be reused by the caller.
	l.buffer = append(l.buffer, p...)
	return len(p), nil
}

// setOutput swaps the destination, flushing any buffered lines into it.
// A nil writer discards the buffer and every future message.
func (l *DebugLogger) setOutput(w io.Writer, c io.Closer) {
	if l.closer != nil {
		_ = l.closer.Close()
	}
	l.out, l.closer = w, c

	if w == nil {
		l.discard = true
		l.buffer = nil
		return
	}

	l.discard = false
	if len(l.buffer) > 0 {
		_, _ = w.Write(l.buffer)
		l.buffer = nil
	}
}

// SetFile directs debug output to path, creating it when needed.
// An empty path discards buffered and future messages.
func SetFile(path string) error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if path == "" {
		globalDebugLogger.setOutput(nil, nil)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		globalDebugLogger.setOutput(nil, nil)
		return err
	}
	globalDebugLogger.setOutput(f, f)
	return nil
}

// SetWriter directs debug output to w. Tests use it to capture log lines.
func SetWriter(w io.Writer) {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()
	globalDebugLogger.setOutput(w, nil)
}

// Printf writes a formatted debug message.
func Printf(format string, args ...any) {
	stdLogger.Printf(format, args...)
}

// Println writes a debug message.
func Println(v ...any) {
	stdLogger.Println(v...)
}

// Close releases the log file, if one is open.
func Close() error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.closer == nil {
		return nil
	}
	err := globalDebugLogger.closer.Close()
	globalDebugLogger.closer = nil
	globalDebugLogger.out = nil
	return err
}
