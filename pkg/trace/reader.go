package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gobwas/glob"

	"github.com/cmagness/glue/pkg/message"
)

// ErrInvalidPattern is returned when a sender label pattern does not compile.
var ErrInvalidPattern = errors.New("invalid sender pattern")

// Filter specifies criteria for selecting trace events.
// Empty/nil fields match all events for that criterion.
type Filter struct {
	// HubID filters by exact hub ID.
	HubID string

	// Category filters by event category.
	Category *Category

	// Kind matches events whose kind is Kind or derives from it.
	Kind *message.Kind

	// SenderID filters by exact sender ID.
	SenderID string

	// SenderLabel is a glob pattern matched against the sender label (e.g. "flux*").
	SenderLabel string

	// FailedOnly selects broadcasts where at least one handler failed.
	FailedOnly bool

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time
}

// Matcher is a compiled Filter.
type Matcher struct {
	filter Filter
	label  glob.Glob
}

// Compile validates the filter and returns a Matcher.
func (f Filter) Compile() (*Matcher, error) {
	m := &Matcher{filter: f}
	if f.SenderLabel != "" {
		g, err := glob.Compile(f.SenderLabel)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, f.SenderLabel, err)
		}
		m.label = g
	}
	return m, nil
}

// Match returns true if the event satisfies every filter criterion.
func (m *Matcher) Match(event Event) bool {
	f := &m.filter
	if f.HubID != "" && event.HubID != f.HubID {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Kind != nil && !event.Kind.IsA(*f.Kind) {
		return false
	}
	if f.SenderID != "" && event.SenderID != f.SenderID {
		return false
	}
	if m.label != nil && !m.label.Match(event.SenderLabel) {
		return false
	}
	if f.FailedOnly && !event.Failed() {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Reader reads trace events from a CBOR-encoded file.
// It provides an iterator interface for streaming large files.
type Reader struct {
	file    *os.File
	stream  *eventStream
	matcher *Matcher
}

// NewReader creates a Reader that reads all events from the trace file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that reads events matching the filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	matcher, err := filter.Compile()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		stream:  newEventStream(f),
		matcher: matcher,
	}, nil
}

// Next returns the next event that matches the filter.
// Returns io.EOF when no more events are available and an
// ErrMalformedEvent error for a corrupt record.
func (r *Reader) Next() (Event, error) {
	for {
		event, err := r.stream.next()
		if err != nil {
			return Event{}, err
		}
		if r.matcher.Match(event) {
			return event, nil
		}
	}
}

// ReadAll returns all remaining matching events.
func (r *Reader) ReadAll() ([]Event, error) {
	var events []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
