package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned when a file format cannot be determined or
// is not supported.
var ErrUnknownFormat = errors.New("unknown format")

// Format names.
const (
	FormatAuto = "auto"
	FormatFITS = "fits"
	FormatHDF5 = "hdf5"
)

// formatAliases maps accepted spellings to canonical format names.
var formatAliases = map[string]string{
	"fits": FormatFITS,
	"fit":  FormatFITS,
	"hdf5": FormatHDF5,
	"hdf":  FormatHDF5,
	"h5":   FormatHDF5,
}

// DetectFormat returns the canonical format for filename. With format "auto"
// (or "") the format is taken from the extension; a trailing ".gz" is skipped.
func DetectFormat(filename, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == FormatAuto {
		name := strings.ToLower(filepath.Base(filename))
		name = strings.TrimSuffix(name, ".gz")
		ext := filepath.Ext(name)
		if ext == "" {
			return "", fmt.Errorf("%w: no extension in %q", ErrUnknownFormat, filename)
		}
		format = ext[1:]
	}

	canonical, ok := formatAliases[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return canonical, nil
}
