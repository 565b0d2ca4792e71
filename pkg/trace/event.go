package trace

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cmagness/glue/pkg/message"
)

// ErrMalformedEvent is returned for events whose payload does not match
// their category.
var ErrMalformedEvent = errors.New("malformed trace event")

// Event is a single traced Hub operation.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// HubID identifies the hub that produced the event.
	HubID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Kind is the message kind (broadcasts) or subscribed kind (registry changes).
	Kind message.Kind `cbor:"4,keyasint"`

	// SenderID is the originating object's ID (broadcasts only).
	SenderID string `cbor:"5,keyasint,omitempty"`

	// SenderLabel is the originating object's label (broadcasts only).
	SenderLabel string `cbor:"6,keyasint,omitempty"`

	// Attribute is the changed attribute for update messages.
	Attribute string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Delivery *DeliveryEvent `cbor:"8,keyasint,omitempty"`
	Registry *RegistryEvent `cbor:"9,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryBroadcast indicates a message delivery.
	CategoryBroadcast Category = 0
	// CategoryRegistry indicates a subscribe/unsubscribe/close.
	CategoryRegistry Category = 1
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryBroadcast:
		return "BROADCAST"
	case CategoryRegistry:
		return "REGISTRY"
	default:
		return "UNKNOWN"
	}
}

// DeliveryEvent captures the outcome of one broadcast.
type DeliveryEvent struct {
	// Matched is the number of subscriptions whose kind and filter accepted the message.
	Matched int `cbor:"1,keyasint"`

	// Failed is the number of handlers that returned an error or panicked.
	Failed int `cbor:"2,keyasint,omitempty"`

	// Errors holds the handler error messages, in delivery order.
	Errors []string `cbor:"3,keyasint,omitempty"`

	// Duration is the total delivery time. Stored as nanoseconds.
	Duration time.Duration `cbor:"4,keyasint,omitempty"`

	// Aborted indicates fail-fast delivery stopped before all handlers ran.
	Aborted bool `cbor:"5,keyasint,omitempty"`
}

// RegistryEvent captures a change to the hub's subscriber registry.
type RegistryEvent struct {
	// Action performed on the registry.
	Action RegistryAction `cbor:"1,keyasint"`

	// Listener is a printable listener identity.
	Listener string `cbor:"2,keyasint,omitempty"`

	// Subscriptions is the registry size after the change.
	Subscriptions int `cbor:"3,keyasint"`
}

// RegistryAction indicates what happened to the registry.
type RegistryAction uint8

const (
	// ActionSubscribe indicates a new or replaced subscription.
	ActionSubscribe RegistryAction = 0
	// ActionUnsubscribe indicates one or more subscriptions were removed.
	ActionUnsubscribe RegistryAction = 1
	// ActionClose indicates the hub was disposed.
	ActionClose RegistryAction = 2
)

// String returns the action name.
func (a RegistryAction) String() string {
	switch a {
	case ActionSubscribe:
		return "SUBSCRIBE"
	case ActionUnsubscribe:
		return "UNSUBSCRIBE"
	case ActionClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// Failed returns true if the event records a broadcast with handler failures.
func (e Event) Failed() bool {
	return e.Delivery != nil && e.Delivery.Failed > 0
}

// Validate checks that the event carries the payload of its category and a
// known kind.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: kind %d", ErrMalformedEvent, e.Kind)
	}
	switch e.Category {
	case CategoryBroadcast:
		if e.Delivery == nil || e.Registry != nil {
			return fmt.Errorf("%w: broadcast needs a delivery payload only", ErrMalformedEvent)
		}
	case CategoryRegistry:
		if e.Registry == nil || e.Delivery != nil {
			return fmt.Errorf("%w: registry change needs a registry payload only", ErrMalformedEvent)
		}
	default:
		return fmt.Errorf("%w: category %d", ErrMalformedEvent, e.Category)
	}
	return nil
}

// Events are small flat maps: Event holds a payload which holds at most the
// error list, so anything nested deeper or duplicating a key is corrupt.
var (
	eventEncMode cbor.EncMode
	eventDecMode cbor.DecMode
)

func init() {
	var err error

	eventEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR encoder mode: %v", err))
	}

	eventDecMode, err = cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		MaxNestedLevels: 8,
		MaxMapPairs:     32,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR decoder mode: %v", err))
	}
}

// EncodeEvent validates event and encodes it to CBOR bytes.
func EncodeEvent(event Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return eventEncMode.Marshal(event)
}

// DecodeEvent decodes and validates one CBOR-encoded event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// eventStream reads consecutive events from a trace file.
type eventStream struct {
	dec *cbor.Decoder
}

func newEventStream(r io.Reader) *eventStream {
	return &eventStream{dec: eventDecMode.NewDecoder(r)}
}

// next returns io.EOF at a clean end of input.
func (s *eventStream) next() (Event, error) {
	var event Event
	if err := s.dec.Decode(&event); err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := event.Validate(); err != nil {
		return Event{}, fmt.Errorf("event %s: %w", event.Timestamp.Format(time.RFC3339Nano), err)
	}
	return event, nil
}
