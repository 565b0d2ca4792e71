// Package session provides the workspace context: exactly one Hub and one
// DataCollection with a common lifetime.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cmagness/glue/pkg/collection"
	"github.com/cmagness/glue/pkg/hub"
	"github.com/cmagness/glue/pkg/persistence"
	"github.com/cmagness/glue/pkg/trace"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session is closed")

// Config holds session configuration.
type Config struct {
	// Logger is the optional operational logger.
	Logger *slog.Logger

	// FailFast is passed to the hub.
	FailFast bool

	// TraceFile, if set, receives a CBOR trace of every hub operation.
	TraceFile string

	// TraceConsole mirrors trace events to Logger at debug level.
	TraceConsole bool

	// Tracer is an additional trace logger, e.g. for tests.
	Tracer trace.Logger
}

// Session owns the hub and the data collection of one workspace.
type Session struct {
	mu sync.Mutex

	hub        *hub.Hub
	collection *collection.DataCollection
	traceFile  *trace.FileLogger
	logger     *slog.Logger
	closed     bool
}

// New creates a session with a fresh hub and an empty collection bound to it.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{logger: logger}

	var tracers []trace.Logger
	if cfg.TraceFile != "" {
		fl, err := trace.NewFileLogger(cfg.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		s.traceFile = fl
		tracers = append(tracers, fl)
	}
	if cfg.TraceConsole {
		tracers = append(tracers, trace.NewSlogAdapter(logger))
	}
	if cfg.Tracer != nil {
		tracers = append(tracers, cfg.Tracer)
	}

	hubCfg := hub.Config{
		Logger:   logger,
		FailFast: cfg.FailFast,
	}
	if len(tracers) > 0 {
		hubCfg.Tracer = trace.Tee(tracers...)
	}

	s.hub = hub.New(hubCfg)
	s.collection = collection.New()
	if err := s.collection.RegisterToHub(s.hub); err != nil {
		s.closeTrace()
		return nil, err
	}

	logger.Info("session started", "hub_id", s.hub.ID(), "trace_file", cfg.TraceFile)
	return s, nil
}

// Hub returns the session hub.
func (s *Session) Hub() *hub.Hub {
	return s.hub
}

// Collection returns the session data collection.
func (s *Session) Collection() *collection.DataCollection {
	return s.collection
}

// Attach lets l subscribe itself on the session hub.
func (s *Session) Attach(l hub.HubListener) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return l.RegisterToHub(s.hub)
}

// Save writes a snapshot of the collection to path.
func (s *Session) Save(path string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	state, err := persistence.Capture(s.collection)
	if err != nil {
		return err
	}
	if err := persistence.NewStore(path).Save(state); err != nil {
		return err
	}

	s.logger.Info("session saved", "path", path, "datasets", len(state.Datasets))
	return nil
}

// Load restores the snapshot at path into the collection. A missing file
// restores nothing.
func (s *Session) Load(path string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	state, err := persistence.NewStore(path).Load()
	if err != nil {
		return err
	}
	if state == nil {
		s.logger.Debug("no session state", "path", path)
		return nil
	}
	if err := persistence.Restore(state, s.collection); err != nil {
		return err
	}

	s.logger.Info("session loaded", "path", path, "datasets", len(state.Datasets))
	return nil
}

// Close disposes the hub, which unsubscribes every listener, and closes the
// trace file. It is safe to call Close multiple times.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.hub.Close()
	if cerr := s.closeTrace(); cerr != nil && err == nil {
		err = cerr
	}

	s.logger.Info("session closed", "hub_id", s.hub.ID())
	return err
}

func (s *Session) closeTrace() error {
	if s.traceFile == nil {
		return nil
	}
	return s.traceFile.Close()
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
