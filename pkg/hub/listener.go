package hub

import (
	"fmt"
	"reflect"

	"github.com/cmagness/glue/pkg/message"
)

// Listener identifies a subscriber by pointer identity. Observers normally
// use a pointer to themselves. Other kinds are rejected: a struct value with
// an interface field holding a slice would panic when compared.
type Listener = any

// Handler reacts to a delivered message.
type Handler func(msg message.Message) error

// Filter decides whether a matching message is delivered. A nil Filter
// accepts every message.
type Filter func(msg message.Message) bool

// HubListener is implemented by observers that wire their own subscriptions.
type HubListener interface {
	// RegisterToHub subscribes the observer's handlers on h.
	RegisterToHub(h *Hub) error
}

// SenderIs returns a Filter accepting only messages sent by s.
func SenderIs(s message.Sender) Filter {
	return func(msg message.Message) bool {
		return msg.Sender() == s
	}
}

// KindHandler adapts a function that does not fail into a Handler.
func KindHandler(fn func(msg message.Message)) Handler {
	return func(msg message.Message) error {
		fn(msg)
		return nil
	}
}

// validListener reports whether l is a non-nil pointer.
func validListener(l Listener) bool {
	if l == nil {
		return false
	}
	rv := reflect.ValueOf(l)
	return rv.Kind() == reflect.Pointer && !rv.IsNil()
}

// listenerName returns a printable identity for logs and errors.
func listenerName(l Listener) string {
	switch v := l.(type) {
	case fmt.Stringer:
		return v.String()
	case message.Sender:
		return fmt.Sprintf("%T(%s)", l, v.ID())
	default:
		return fmt.Sprintf("%T", l)
	}
}
