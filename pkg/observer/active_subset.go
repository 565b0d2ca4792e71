package observer

import (
	"sync"

	"github.com/cmagness/glue/pkg/collection"
	"github.com/cmagness/glue/pkg/hub"
	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/model"
)

// ActiveSubsetTracker follows the active subset of one DataCollection, the
// way an editing toolbar does. Active changes from other collections are
// ignored.
type ActiveSubsetTracker struct {
	mu sync.RWMutex

	collection *collection.DataCollection
	active     *model.Subset
	onChange   func(active *model.Subset)
}

// NewActiveSubsetTracker creates a tracker for dc. onChange, if not nil, is
// called after every active change with the new active subset (nil when cleared).
func NewActiveSubsetTracker(dc *collection.DataCollection, onChange func(active *model.Subset)) *ActiveSubsetTracker {
	return &ActiveSubsetTracker{
		collection: dc,
		active:     dc.Active(),
		onChange:   onChange,
	}
}

// RegisterToHub subscribes to active changes sent by the tracked collection.
func (t *ActiveSubsetTracker) RegisterToHub(h *hub.Hub) error {
	return h.Subscribe(t, message.KindDataCollectionActiveChange, t.handle, hub.SenderIs(t.collection))
}

func (t *ActiveSubsetTracker) handle(msg message.Message) error {
	change, ok := msg.(message.DataCollectionActiveChange)
	if !ok {
		return nil
	}
	active, _ := change.Active().(*model.Subset)

	t.mu.Lock()
	t.active = active
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(active)
	}
	return nil
}

// Active returns the tracked active subset, or nil.
func (t *ActiveSubsetTracker) Active() *model.Subset {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Editable returns true if the active subset is attached and its state
// evaluates to a selection on its data. A range over a component the data
// lacks is not editable.
func (t *ActiveSubsetTracker) Editable() bool {
	s := t.Active()
	if s == nil || s.Status() != model.SubsetAttached {
		return false
	}
	_, err := s.ToMask()
	return err == nil
}

// String identifies the tracker in hub logs.
func (t *ActiveSubsetTracker) String() string {
	return "ActiveSubsetTracker"
}

var _ hub.HubListener = (*ActiveSubsetTracker)(nil)
