package model

import (
	"errors"
	"fmt"
)

// ErrInvalidStyle is returned for out of range visual attributes.
var ErrInvalidStyle = errors.New("invalid style")

// Default colors.
const (
	DefaultDataColor = "#373737"
)

// subsetPalette is cycled through when subsets are created.
var subsetPalette = []string{
	"#e31a1c",
	"#377eb8",
	"#4daf4a",
	"#984ea3",
	"#ff7f00",
}

// Style holds the visual attributes of a Data or Subset.
type Style struct {
	Label string
	Color string
	Alpha float64
}

// Validate checks the attribute ranges.
func (s Style) Validate() error {
	if s.Alpha < 0 || s.Alpha > 1 {
		return fmt.Errorf("%w: alpha %v not in [0, 1]", ErrInvalidStyle, s.Alpha)
	}
	return nil
}

func subsetColor(n int) string {
	return subsetPalette[(n-1+len(subsetPalette))%len(subsetPalette)]
}
