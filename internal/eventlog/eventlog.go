// Package eventlog appends timestamped run events to run.log.
package eventlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileName is the event log artifact inside a run directory.
const FileName = "run.log"

// Log writes "[RFC3339 timestamp] message" lines and mirrors each message
// to the process logger.
type Log struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	mirror *log.Logger
	now    func() time.Time
}

// Open appends to dir/run.log, creating it when needed.
func Open(dir string) (*Log, error) {
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open: %w", err)
	}
	l := New(f, log.Default())
	l.closer = f
	return l, nil
}

// New writes events to w. A nil mirror disables mirroring.
func New(w io.Writer, mirror *log.Logger) *Log {
	return &Log{w: w, mirror: mirror, now: time.Now}
}

// Eventf records one event. Write failures go to the mirror only; the event
// log never fails a run.
func (l *Log) Eventf(format string, args ...any) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintf(l.w, "[%s] %s\n", l.now().Format(time.RFC3339), msg); err != nil && l.mirror != nil {
		l.mirror.Printf("eventlog: write: %v", err)
	}
	if l.mirror != nil {
		l.mirror.Print(msg)
	}
}

// Close closes the underlying file when Open created it.
func (l *Log) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
