package model

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIndexOutOfRange is returned when an element index exceeds the data size.
var ErrIndexOutOfRange = errors.New("element index out of range")

// SubsetState computes which elements of a Data are selected.
type SubsetState interface {
	Mask(d *Data) ([]bool, error)
}

// EmptyState selects nothing.
type EmptyState struct{}

// Mask returns an all-false mask.
func (EmptyState) Mask(d *Data) ([]bool, error) {
	return make([]bool, d.Size()), nil
}

// MaskState selects elements by an explicit mask.
type MaskState struct {
	mask []bool
}

// NewMaskState copies mask into a state.
func NewMaskState(mask []bool) MaskState {
	return MaskState{mask: slices.Clone(mask)}
}

// Mask returns a copy of the stored mask.
func (s MaskState) Mask(d *Data) ([]bool, error) {
	if size := d.Size(); len(s.mask) != size {
		return nil, fmt.Errorf("%w: mask has %d elements, data has %d", ErrShapeMismatch, len(s.mask), size)
	}
	return slices.Clone(s.mask), nil
}

// ElementState selects elements by flat row-major index.
type ElementState struct {
	indices []int
}

// NewElementState copies indices into a state.
func NewElementState(indices []int) ElementState {
	return ElementState{indices: slices.Clone(indices)}
}

// Indices returns a copy of the selected indices.
func (s ElementState) Indices() []int {
	return slices.Clone(s.indices)
}

// Mask sets the flag of every selected index.
func (s ElementState) Mask(d *Data) ([]bool, error) {
	mask := make([]bool, d.Size())
	for _, i := range s.indices {
		if i < 0 || i >= len(mask) {
			return nil, fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(mask))
		}
		mask[i] = true
	}
	return mask, nil
}

// RangeState selects elements whose component value lies in [Lo, Hi].
type RangeState struct {
	Component string
	Lo, Hi    float64
}

// Mask evaluates the range against the named component.
func (s RangeState) Mask(d *Data) ([]bool, error) {
	values, err := d.Get(s.Component)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = v >= s.Lo && v <= s.Hi
	}
	return mask, nil
}

// InvertState selects the elements its operand does not.
type InvertState struct {
	State SubsetState
}

// Mask negates the operand mask.
func (s InvertState) Mask(d *Data) ([]bool, error) {
	mask, err := s.State.Mask(d)
	if err != nil {
		return nil, err
	}
	for i := range mask {
		mask[i] = !mask[i]
	}
	return mask, nil
}

// AndState selects elements selected by both operands.
type AndState struct {
	A, B SubsetState
}

// Mask intersects the operand masks.
func (s AndState) Mask(d *Data) ([]bool, error) {
	return combine(d, s.A, s.B, func(a, b bool) bool { return a && b })
}

// OrState selects elements selected by either operand.
type OrState struct {
	A, B SubsetState
}

// Mask unions the operand masks.
func (s OrState) Mask(d *Data) ([]bool, error) {
	return combine(d, s.A, s.B, func(a, b bool) bool { return a || b })
}

// XorState selects elements selected by exactly one operand.
type XorState struct {
	A, B SubsetState
}

// Mask takes the symmetric difference of the operand masks.
func (s XorState) Mask(d *Data) ([]bool, error) {
	return combine(d, s.A, s.B, func(a, b bool) bool { return a != b })
}

func combine(d *Data, a, b SubsetState, op func(a, b bool) bool) ([]bool, error) {
	ma, err := a.Mask(d)
	if err != nil {
		return nil, err
	}
	mb, err := b.Mask(d)
	if err != nil {
		return nil, err
	}
	if len(ma) != len(mb) {
		return nil, fmt.Errorf("%w: operand masks have %d and %d elements", ErrShapeMismatch, len(ma), len(mb))
	}
	for i := range ma {
		ma[i] = op(ma[i], mb[i])
	}
	return ma, nil
}

// SelectedIndices returns the flat indices set in mask.
func SelectedIndices(mask []bool) []int {
	var out []int
	for i, sel := range mask {
		if sel {
			out = append(out, i)
		}
	}
	return out
}

var (
	_ SubsetState = EmptyState{}
	_ SubsetState = MaskState{}
	_ SubsetState = ElementState{}
	_ SubsetState = RangeState{}
	_ SubsetState = InvertState{}
	_ SubsetState = AndState{}
	_ SubsetState = OrState{}
	_ SubsetState = XorState{}
)
