package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cmagness/glue/pkg/message"
)

// Subset errors.
var (
	ErrSubsetRemoved = errors.New("subset has been removed")
	ErrNoData        = errors.New("subset has no parent data")
)

// Update attributes carried by SubsetUpdateMessage.
const (
	AttrSubsetState = "subset_state"
	AttrStyle       = "style"
	AttrLabel       = "label"
)

// SubsetStatus is the lifecycle state of a Subset.
type SubsetStatus uint8

const (
	// SubsetUnattached means the subset is not in its data's subset list yet.
	SubsetUnattached SubsetStatus = iota
	// SubsetAttached means the subset is listed by its data.
	SubsetAttached
	// SubsetRemoved is terminal.
	SubsetRemoved
)

// String returns the status name.
func (s SubsetStatus) String() string {
	switch s {
	case SubsetUnattached:
		return "UNATTACHED"
	case SubsetAttached:
		return "ATTACHED"
	case SubsetRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// Subset is a selection over the elements of one Data.
type Subset struct {
	mu sync.RWMutex

	id   string
	data *Data

	style     Style
	state     SubsetState
	status    SubsetStatus
	broadcast bool
}

// NewSubset creates an unattached, empty subset of d.
func NewSubset(d *Data) *Subset {
	n := 0
	if d != nil {
		n = d.nextSubsetNumber()
	}
	return &Subset{
		id:    uuid.New().String(),
		data:  d,
		style: Style{Label: fmt.Sprintf("Subset %d", n), Color: subsetColor(n), Alpha: 0.5},
		state: EmptyState{},
	}
}

// ID returns the unique subset identifier.
func (s *Subset) ID() string {
	return s.id
}

// Data returns the parent data.
func (s *Subset) Data() *Data {
	return s.data
}

// Label returns the display name.
func (s *Subset) Label() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style.Label
}

// Style returns the visual attributes.
func (s *Subset) Style() Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// Status returns the lifecycle state.
func (s *Subset) Status() SubsetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// State returns the selection state.
func (s *Subset) State() SubsetState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Broadcasting returns true if changes to the subset are broadcast.
func (s *Subset) Broadcasting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.broadcast
}

// SetBroadcast enables or disables broadcasting of changes.
func (s *Subset) SetBroadcast(enabled bool) {
	s.mu.Lock()
	s.broadcast = enabled
	s.mu.Unlock()
}

// ToMask returns the selection as one flag per element of the parent data.
func (s *Subset) ToMask() ([]bool, error) {
	if s == nil || s.data == nil {
		return nil, ErrNoData
	}

	s.mu.RLock()
	status, state := s.status, s.state
	s.mu.RUnlock()

	if status == SubsetRemoved {
		return nil, ErrSubsetRemoved
	}
	return state.Mask(s.data)
}

// Register attaches the subset to its parent data.
func (s *Subset) Register() error {
	if s.data == nil {
		return ErrNoData
	}
	return s.data.AddSubset(s)
}

// Delete removes the subset from its parent data.
func (s *Subset) Delete() error {
	if s.data == nil {
		return ErrNoData
	}
	return s.data.RemoveSubset(s)
}

// SetState replaces the selection and broadcasts a "subset_state" update.
// A nil state selects nothing.
func (s *Subset) SetState(state SubsetState) error {
	if state == nil {
		state = EmptyState{}
	}

	s.mu.Lock()
	if s.status == SubsetRemoved {
		s.mu.Unlock()
		return ErrSubsetRemoved
	}
	s.state = state
	s.mu.Unlock()

	return s.Broadcast(AttrSubsetState)
}

// SetLabel changes the display name and broadcasts a "style" update.
func (s *Subset) SetLabel(label string) error {
	s.mu.Lock()
	s.style.Label = label
	s.mu.Unlock()
	return s.Broadcast(AttrStyle)
}

// SetStyle replaces the visual attributes and broadcasts a "style" update.
func (s *Subset) SetStyle(style Style) error {
	if err := style.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.style = style
	s.mu.Unlock()
	return s.Broadcast(AttrStyle)
}

// Broadcast announces a change of attribute. Nothing is sent unless the
// subset is attached, broadcasting is enabled and its data has a hub.
func (s *Subset) Broadcast(attribute string) error {
	s.mu.RLock()
	send := s.status == SubsetAttached && s.broadcast
	s.mu.RUnlock()

	if !send || s.data == nil {
		return nil
	}
	h := s.data.Hub()
	if h == nil {
		return nil
	}
	return h.Broadcast(message.NewSubsetUpdateMessage(s, attribute))
}

// String returns the label and status.
func (s *Subset) String() string {
	return fmt.Sprintf("%s (%s)", s.Label(), s.Status())
}

var (
	_ message.Sender = (*Subset)(nil)
	_ Masker         = (*Subset)(nil)
)
