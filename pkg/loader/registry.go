package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/cmagness/glue/pkg/model"
)

// ErrNilReader is returned when registering a nil reader.
var ErrNilReader = errors.New("reader is nil")

// Arrays is the raw content a reader extracts from a gridded file.
type Arrays struct {
	// Shape shared by every array.
	Shape []int

	// Arrays in file order.
	Arrays []Column

	// Coords is the coordinate strategy derived from the file header, or nil.
	Coords model.Coordinates
}

// ArrayReader extracts arrays from a file of one format.
type ArrayReader interface {
	ReadArrays(ctx context.Context, filename string) (*Arrays, error)
}

// ArrayReaderFunc adapts a function to ArrayReader.
type ArrayReaderFunc func(ctx context.Context, filename string) (*Arrays, error)

// ReadArrays calls f.
func (f ArrayReaderFunc) ReadArrays(ctx context.Context, filename string) (*Arrays, error) {
	return f(ctx, filename)
}

// Registry maps canonical format names to readers.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]ArrayReader
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		readers: make(map[string]ArrayReader),
		logger:  logger,
	}
}

// Register installs r for format. format is canonicalised, so "fit" registers
// the FITS reader.
func (r *Registry) Register(format string, reader ArrayReader) error {
	if reader == nil {
		return ErrNilReader
	}
	canonical, err := DetectFormat("", format)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.readers[canonical] = reader
	r.mu.Unlock()
	return nil
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.readers))
	for f := range r.readers {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// LoadGridded reads filename with the reader for format (or the detected
// format for "auto") and builds gridded data labelled with the file name.
func (r *Registry) LoadGridded(ctx context.Context, filename, format string) (*model.Data, error) {
	canonical, err := DetectFormat(filename, format)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	reader, ok := r.readers[canonical]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no reader for %s", ErrUnknownFormat, canonical)
	}

	arrays, err := reader.ReadArrays(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	d, err := NewGridded(filename, slices.Clone(arrays.Shape), arrays.Arrays)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", filename, err)
	}
	if arrays.Coords != nil {
		d.SetCoords(arrays.Coords)
	}

	r.logger.Debug("loaded gridded data",
		"file", filename,
		"format", canonical,
		"shape", d.Shape(),
		"components", len(d.ComponentNames()),
	)
	return d, nil
}
