package trace

import (
	"errors"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends trace events to a .glog file.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	mu sync.Mutex

	file    *os.File
	enc     *cbor.Encoder
	matcher *Matcher

	written int
	dropped int
	err     error
	closed  bool
}

// NewFileLogger opens path for appending every event, creating it with
// permissions 0644 if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	return OpenFile(path, Filter{})
}

// OpenFile opens path for appending the events that match filter.
// An invalid filter is reported before the file is touched.
func OpenFile(path string, filter Filter) (*FileLogger, error) {
	m, err := filter.Compile()
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		file:    f,
		enc:     eventEncMode.NewEncoder(f),
		matcher: m,
	}, nil
}

// Log appends the event if it matches the filter. Malformed events and
// write failures are counted as dropped; tracing never fails a broadcast.
// The first failure is kept and returned by Close.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || !l.matcher.Match(event) {
		return
	}

	err := event.Validate()
	if err == nil {
		err = l.enc.Encode(event)
	}
	if err != nil {
		l.dropped++
		if l.err == nil {
			l.err = err
		}
		return
	}
	l.written++
}

// Written returns the number of events appended so far.
func (l *FileLogger) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Dropped returns the number of matching events that could not be written.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close closes the trace file and returns the first write failure, if any.
// Subsequent Log calls are ignored and further Close calls return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Join(l.err, l.file.Close())
}

var _ Logger = (*FileLogger)(nil)
