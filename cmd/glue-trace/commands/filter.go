package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/cmagness/glue/pkg/trace"
)

// ErrNoOutput is returned by RunFilter without an output path.
var ErrNoOutput = errors.New("output file required")

// RunFilter copies the events of path that match filter into the trace
// file at output and returns the number of events written.
func RunFilter(path, output string, filter trace.Filter) (int, error) {
	if output == "" {
		return 0, ErrNoOutput
	}

	reader, err := trace.NewReader(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	logger, err := trace.OpenFile(output, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer logger.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return logger.Written(), fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
	}

	count := logger.Written()
	if err := logger.Close(); err != nil {
		return count, fmt.Errorf("failed to write output file: %w", err)
	}
	return count, nil
}
