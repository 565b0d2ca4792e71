// Package observer provides reusable hub listeners.
package observer

import (
	"slices"
	"sync"

	"github.com/cmagness/glue/pkg/hub"
	"github.com/cmagness/glue/pkg/message"
)

// Recorder keeps every message it receives, in delivery order.
type Recorder struct {
	mu sync.Mutex

	kinds  []message.Kind
	filter hub.Filter
	msgs   []message.Message
}

// NewRecorder creates a recorder for kinds (all messages if none are given).
// filter may be nil.
func NewRecorder(filter hub.Filter, kinds ...message.Kind) *Recorder {
	if len(kinds) == 0 {
		kinds = []message.Kind{message.KindMessage}
	}
	return &Recorder{kinds: kinds, filter: filter}
}

// RegisterToHub subscribes the recorder to each of its kinds.
func (r *Recorder) RegisterToHub(h *hub.Hub) error {
	for _, k := range r.kinds {
		if err := h.Subscribe(r, k, r.record, r.filter); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) record(msg message.Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return nil
}

// Messages returns the recorded messages.
func (r *Recorder) Messages() []message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.msgs)
}

// Last returns the most recent message, or nil.
func (r *Recorder) Last() message.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return nil
	}
	return r.msgs[len(r.msgs)-1]
}

// Count returns how many recorded messages are of kind or derive from it.
func (r *Recorder) Count(kind message.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, m := range r.msgs {
		if m.Kind().IsA(kind) {
			n++
		}
	}
	return n
}

// Reset discards the recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}

// String identifies the recorder in hub logs.
func (r *Recorder) String() string {
	return "Recorder"
}

var _ hub.HubListener = (*Recorder)(nil)
