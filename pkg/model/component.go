package model

import (
	"errors"
	"fmt"
	"slices"
)

// Component errors.
var (
	ErrCapability    = errors.New("value does not implement the mask capability")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Masker is implemented by values that can select elements of a Component.
type Masker interface {
	// ToMask returns one flag per element, in row-major order.
	ToMask() ([]bool, error)
}

// Component is a named array of values with optional physical units.
// Components are immutable once constructed.
type Component struct {
	values []float64
	shape  []int
	units  string
}

// NewComponent creates a component from flattened row-major values.
// A nil shape is treated as one-dimensional.
func NewComponent(values []float64, shape []int, units string) (*Component, error) {
	if shape == nil {
		shape = []int{len(values)}
	}

	size := 1
	for _, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative dimension in %v", ErrShapeMismatch, shape)
		}
		size *= n
	}
	if size != len(values) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(values), shape)
	}

	return &Component{
		values: slices.Clone(values),
		shape:  slices.Clone(shape),
		units:  units,
	}, nil
}

// Values returns a copy of the component values.
func (c *Component) Values() []float64 {
	return slices.Clone(c.values)
}

// Shape returns a copy of the component shape.
func (c *Component) Shape() []int {
	return slices.Clone(c.shape)
}

// Units returns the physical units, or "" if none.
func (c *Component) Units() string {
	return c.units
}

// Len returns the number of elements.
func (c *Component) Len() int {
	return len(c.values)
}

// NDim returns the number of dimensions.
func (c *Component) NDim() int {
	return len(c.shape)
}

// ValueFor returns the values selected by x. x must implement Masker;
// anything else fails with ErrCapability before any value is read.
func (c *Component) ValueFor(x any) ([]float64, error) {
	m, ok := x.(Masker)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrCapability, x)
	}

	mask, err := m.ToMask()
	if err != nil {
		return nil, err
	}
	if len(mask) != len(c.values) {
		return nil, fmt.Errorf("%w: mask has %d elements, component has %d", ErrShapeMismatch, len(mask), len(c.values))
	}

	out := make([]float64, 0, len(c.values))
	for i, sel := range mask {
		if sel {
			out = append(out, c.values[i])
		}
	}
	return out, nil
}
