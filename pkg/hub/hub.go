package hub

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/trace"
)

// Hub errors.
var (
	ErrHubClosed            = errors.New("hub is closed")
	ErrNilListener          = errors.New("listener is nil")
	ErrListenerNotPointer   = errors.New("listener must be a non-nil pointer")
	ErrNilHandler           = errors.New("handler is nil")
	ErrNilMessage           = errors.New("message is nil")
	ErrInvalidKind          = errors.New("invalid message kind")
	ErrHandlerPanic         = errors.New("handler panicked")
)

// DeliveryError reports a handler that failed while processing a broadcast.
type DeliveryError struct {
	// Listener is the subscriber whose handler failed.
	Listener Listener

	// Kind is the kind the listener subscribed to (may be an ancestor of the message kind).
	Kind message.Kind

	// Message is the message being delivered.
	Message message.Message

	// Err is the handler error.
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to %s (subscribed to %s): %v",
		e.Message.Kind(), listenerName(e.Listener), e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Config holds hub configuration.
type Config struct {
	// Logger is the optional operational logger.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Tracer receives a trace event for every broadcast and registry change.
	// If nil, tracing is disabled.
	Tracer trace.Logger

	// FailFast stops delivery at the first failing handler instead of
	// running every handler and joining the failures.
	FailFast bool
}

// subscription is one registry entry.
type subscription struct {
	listener Listener
	kind     message.Kind
	handler  Handler
	filter   Filter
}

// Hub is a synchronous, order-preserving broadcast bus.
type Hub struct {
	mu sync.RWMutex

	id     string
	config Config
	logger *slog.Logger

	// subs is kept in subscription order; delivery follows it.
	subs   []*subscription
	closed bool
}

// New creates a hub with the given configuration.
func New(config Config) *Hub {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		id:     uuid.New().String(),
		config: config,
		logger: logger,
	}
}

// ID returns the unique hub identifier.
func (h *Hub) ID() string {
	return h.id
}

// Subscribe registers handler for every broadcast message whose kind is kind
// or derives from it and that passes filter. A listener holds at most one
// subscription per kind: subscribing again replaces the handler and filter
// and keeps the original delivery position.
func (h *Hub) Subscribe(l Listener, kind message.Kind, handler Handler, filter Filter) error {
	if l == nil {
		return ErrNilListener
	}
	if !validListener(l) {
		return fmt.Errorf("%w: %T", ErrListenerNotPointer, l)
	}
	if handler == nil {
		return ErrNilHandler
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}

	sub := &subscription{listener: l, kind: kind, handler: handler, filter: filter}
	replaced := false
	for i, s := range h.subs {
		if s.listener == l && s.kind == kind {
			h.subs[i] = sub
			replaced = true
			break
		}
	}
	if !replaced {
		h.subs = append(h.subs, sub)
	}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.Debug("hub subscribe",
		"hub_id", h.id,
		"listener", listenerName(l),
		"kind", kind.String(),
		"replaced", replaced,
	)
	h.traceRegistry(trace.ActionSubscribe, kind, l, count)

	return nil
}

// Unsubscribe removes the listener's subscription for kind.
// Returns true if a subscription was removed.
func (h *Hub) Unsubscribe(l Listener, kind message.Kind) bool {
	return h.unsubscribe(l, func(s *subscription) bool { return s.kind == kind }) > 0
}

// UnsubscribeAll removes every subscription of the listener and returns how
// many were removed.
func (h *Hub) UnsubscribeAll(l Listener) int {
	return h.unsubscribe(l, func(*subscription) bool { return true })
}

func (h *Hub) unsubscribe(l Listener, match func(*subscription) bool) int {
	if !validListener(l) {
		return 0
	}

	h.mu.Lock()
	kept := h.subs[:0]
	removed := 0
	var kind message.Kind
	for _, s := range h.subs {
		if s.listener == l && match(s) {
			removed++
			kind = s.kind
			continue
		}
		kept = append(kept, s)
	}
	// Clear the tail so dropped subscriptions can be collected.
	for i := len(kept); i < len(h.subs); i++ {
		h.subs[i] = nil
	}
	h.subs = kept
	count := len(h.subs)
	h.mu.Unlock()

	if removed > 0 {
		h.logger.Debug("hub unsubscribe",
			"hub_id", h.id,
			"listener", listenerName(l),
			"removed", removed,
		)
		if removed > 1 {
			kind = message.KindMessage
		}
		h.traceRegistry(trace.ActionUnsubscribe, kind, l, count)
	}
	return removed
}

// IsSubscribed returns true if the listener holds a subscription for kind.
func (h *Hub) IsSubscribed(l Listener, kind message.Kind) bool {
	if !validListener(l) {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		if s.listener == l && s.kind == kind {
			return true
		}
	}
	return false
}

// SubscriptionCount returns the total number of subscriptions.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ListenerCount returns the number of distinct listeners.
func (h *Hub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make([]Listener, 0, len(h.subs))
	for _, s := range h.subs {
		found := false
		for _, l := range seen {
			if l == s.listener {
				found = true
				break
			}
		}
		if !found {
			seen = append(seen, s.listener)
		}
	}
	return len(seen)
}

// Broadcast delivers msg synchronously to every matching subscription in
// subscription order. Handler failures are collected and returned as a
// joined error after all handlers ran (or after the first failure when
// Config.FailFast is set).
func (h *Hub) Broadcast(msg message.Message) error {
	if msg == nil {
		return ErrNilMessage
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	kind := msg.Kind()
	matching := make([]*subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if kind.IsA(s.kind) {
			matching = append(matching, s)
		}
	}
	failFast := h.config.FailFast
	h.mu.RUnlock()

	start := time.Now()
	var errs []error
	delivered := 0
	aborted := false

	for i, sub := range matching {
		accepted, err := h.deliver(sub, msg)
		if accepted {
			delivered++
		}
		if err == nil {
			continue
		}

		derr := &DeliveryError{Listener: sub.listener, Kind: sub.kind, Message: msg, Err: err}
		errs = append(errs, derr)
		h.logger.Warn("hub delivery failed",
			"hub_id", h.id,
			"kind", kind.String(),
			"listener", listenerName(sub.listener),
			"error", err,
		)

		if failFast {
			aborted = i < len(matching)-1
			break
		}
	}

	h.traceBroadcast(msg, delivered, errs, time.Since(start), aborted)

	return errors.Join(errs...)
}

// deliver applies the filter and invokes the handler, recovering panics from
// either. accepted reports whether the filter let the message through.
func (h *Hub) deliver(sub *subscription, msg message.Message) (accepted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("hub handler panicked",
				"hub_id", h.id,
				"kind", msg.Kind().String(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	if sub.filter != nil && !sub.filter(msg) {
		return false, nil
	}
	return true, sub.handler(msg)
}

// Close disposes the hub, unsubscribing every listener.
// It is safe to call Close multiple times.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	removed := len(h.subs)
	h.subs = nil
	h.mu.Unlock()

	h.logger.Debug("hub closed", "hub_id", h.id, "removed", removed)
	h.traceRegistry(trace.ActionClose, message.KindMessage, nil, 0)

	return nil
}

// IsClosed returns true once Close has been called.
func (h *Hub) IsClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *Hub) traceBroadcast(msg message.Message, delivered int, errs []error, d time.Duration, aborted bool) {
	if h.config.Tracer == nil {
		return
	}

	event := trace.Event{
		Timestamp: time.Now(),
		HubID:     h.id,
		Category:  trace.CategoryBroadcast,
		Kind:      msg.Kind(),
		Delivery: &trace.DeliveryEvent{
			Matched:  delivered,
			Failed:   len(errs),
			Duration: d,
			Aborted:  aborted,
		},
	}
	if s := msg.Sender(); s != nil {
		event.SenderID = s.ID()
		event.SenderLabel = s.Label()
	}
	if a, ok := msg.(message.Attributed); ok {
		event.Attribute = a.Attribute()
	}
	for _, err := range errs {
		event.Delivery.Errors = append(event.Delivery.Errors, err.Error())
	}

	h.config.Tracer.Log(event)
}

func (h *Hub) traceRegistry(action trace.RegistryAction, kind message.Kind, l Listener, count int) {
	if h.config.Tracer == nil {
		return
	}

	event := trace.Event{
		Timestamp: time.Now(),
		HubID:     h.id,
		Category:  trace.CategoryRegistry,
		Kind:      kind,
		Registry: &trace.RegistryEvent{
			Action:        action,
			Subscriptions: count,
		},
	}
	if l != nil {
		event.Registry.Listener = listenerName(l)
	}

	h.config.Tracer.Log(event)
}
