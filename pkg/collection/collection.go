// Package collection implements DataCollection, the owner of the data sets
// in a workspace and the tracker of the subset currently active for editing.
package collection

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/cmagness/glue/pkg/hub"
	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/model"
)

// Collection errors.
var (
	ErrNilData         = errors.New("data is nil")
	ErrDuplicateData   = errors.New("data already in collection")
	ErrDataNotFound    = errors.New("data not in collection")
	ErrUnknownSubset   = errors.New("subset does not belong to data in collection")
	ErrHubAlreadyBound = errors.New("collection is bound to a different hub")
)

// Label is the sender label of every collection.
const Label = "DataCollection"

// DataCollection owns a set of Data and tracks the active subset.
type DataCollection struct {
	mu sync.RWMutex

	id     string
	data   []*model.Data
	active *model.Subset
	hub    *hub.Hub
}

// New creates an empty collection.
func New() *DataCollection {
	return &DataCollection{id: uuid.New().String()}
}

// ID returns the unique collection identifier.
func (dc *DataCollection) ID() string {
	return dc.id
}

// Label returns the sender label.
func (dc *DataCollection) Label() string {
	return Label
}

// String returns the label and size.
func (dc *DataCollection) String() string {
	return fmt.Sprintf("%s(%d)", Label, dc.Len())
}

// Hub returns the bound hub, or nil.
func (dc *DataCollection) Hub() *hub.Hub {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.hub
}

// RegisterToHub binds the collection and every held Data to h, and
// subscribes the collection to subset deletions so a removed active subset
// is cleared. Nothing is bound when a held Data belongs to another hub.
func (dc *DataCollection) RegisterToHub(h *hub.Hub) error {
	if h == nil {
		return model.ErrTypeMismatch
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if dc.hub != nil && dc.hub != h {
		return ErrHubAlreadyBound
	}
	for _, d := range dc.data {
		if b := d.Hub(); b != nil {
			if owner, ok := b.(*hub.Hub); !ok || owner != h {
				return fmt.Errorf("register %s: %w", d.Label(), model.ErrOwnershipConflict)
			}
		}
	}

	if err := h.Subscribe(dc, message.KindSubsetDelete, dc.onSubsetDelete, dc.isActive); err != nil {
		return err
	}
	for _, d := range dc.data {
		if err := d.RegisterToHub(h); err != nil {
			if dc.hub == nil {
				h.Unsubscribe(dc, message.KindSubsetDelete)
			}
			return fmt.Errorf("register %s: %w", d.Label(), err)
		}
	}
	dc.hub = h
	return nil
}

// isActive accepts messages sent by the current active subset.
func (dc *DataCollection) isActive(msg message.Message) bool {
	s, ok := msg.Sender().(*model.Subset)
	if !ok {
		return false
	}
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.active == s
}

func (dc *DataCollection) onSubsetDelete(msg message.Message) error {
	s, _ := msg.Sender().(*model.Subset)

	dc.mu.Lock()
	if dc.active != s {
		dc.mu.Unlock()
		return nil
	}
	dc.active = nil
	h := dc.hub
	dc.mu.Unlock()

	return dc.broadcastActive(h, nil)
}

// Append adds d, binds it to the collection's hub and broadcasts a
// DataCollectionAddMessage.
func (dc *DataCollection) Append(d *model.Data) error {
	if d == nil {
		return ErrNilData
	}

	dc.mu.Lock()
	if slices.Contains(dc.data, d) {
		dc.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateData, d.Label())
	}
	h := dc.hub
	if h != nil {
		if err := d.RegisterToHub(h); err != nil {
			dc.mu.Unlock()
			return err
		}
	}
	dc.data = append(dc.data, d)
	dc.mu.Unlock()

	if h == nil {
		return nil
	}
	return h.Broadcast(message.NewDataCollectionAddMessage(dc, d))
}

// Remove deletes every subset of d, broadcasts a DataCollectionDeleteMessage
// and then drops d from the collection.
func (dc *DataCollection) Remove(d *model.Data) error {
	dc.mu.RLock()
	found := slices.Contains(dc.data, d)
	h := dc.hub
	dc.mu.RUnlock()

	if !found {
		return ErrDataNotFound
	}

	var errs []error
	for _, s := range d.Subsets() {
		if err := d.RemoveSubset(s); err != nil {
			errs = append(errs, err)
		}
	}

	if h != nil {
		if err := h.Broadcast(message.NewDataCollectionDeleteMessage(dc, d)); err != nil {
			errs = append(errs, err)
		}
	}

	dc.mu.Lock()
	if i := slices.Index(dc.data, d); i >= 0 {
		dc.data = slices.Delete(dc.data, i, i+1)
	}
	clearActive := dc.active != nil && dc.active.Data() == d
	if clearActive {
		dc.active = nil
	}
	dc.mu.Unlock()

	if clearActive {
		if err := dc.broadcastActive(h, nil); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Data returns the held data sets in insertion order.
func (dc *DataCollection) Data() []*model.Data {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return slices.Clone(dc.data)
}

// Len returns the number of held data sets.
func (dc *DataCollection) Len() int {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return len(dc.data)
}

// Contains returns true if d is held.
func (dc *DataCollection) Contains(d *model.Data) bool {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return slices.Contains(dc.data, d)
}

// Get returns the first data set with the given label.
func (dc *DataCollection) Get(label string) (*model.Data, error) {
	dc.mu.RLock()
	defer dc.mu.RUnlock()

	for _, d := range dc.data {
		if d.Label() == label {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDataNotFound, label)
}

// Active returns the subset active for editing, or nil.
func (dc *DataCollection) Active() *model.Subset {
	dc.mu.RLock()
	defer dc.mu.RUnlock()
	return dc.active
}

// SetActive makes s the active subset and broadcasts a
// DataCollectionActiveChange. s must be attached to a held Data; nil clears.
// The Data holding the previous active subset loses its designation.
func (dc *DataCollection) SetActive(s *model.Subset) error {
	dc.mu.Lock()
	if s != nil {
		d := s.Data()
		if d == nil || !slices.Contains(dc.data, d) || !d.HasSubset(s) {
			dc.mu.Unlock()
			return ErrUnknownSubset
		}
		if err := d.SetActiveSubset(s); err != nil {
			dc.mu.Unlock()
			return err
		}
	}
	prev := dc.active
	dc.active = s
	h := dc.hub
	dc.mu.Unlock()

	if prev != nil && prev != s {
		if d := prev.Data(); d != nil && (s == nil || d != s.Data()) && d.ActiveSubset() == prev {
			// prev is attached to d, so clearing cannot fail.
			_ = d.SetActiveSubset(nil)
		}
	}
	return dc.broadcastActive(h, s)
}

func (dc *DataCollection) broadcastActive(h *hub.Hub, s *model.Subset) error {
	if h == nil {
		return nil
	}
	// A nil *model.Subset must not become a non-nil Sender.
	var active message.Sender
	if s != nil {
		active = s
	}
	return h.Broadcast(message.NewDataCollectionActiveChange(dc, active))
}

// NewSubsetGroup creates one subset on every held data set, in collection
// order, so a selection can be edited across all of them.
func (dc *DataCollection) NewSubsetGroup() ([]*model.Subset, error) {
	held := dc.Data()

	subsets := make([]*model.Subset, 0, len(held))
	var errs []error
	for _, d := range held {
		s, err := d.NewSubset()
		subsets = append(subsets, s)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return subsets, errors.Join(errs...)
}

var _ message.Sender = (*DataCollection)(nil)
