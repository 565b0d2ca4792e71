// Package hub implements the glue broadcast bus.
//
// A Hub routes messages from senders (Data, Subset, DataCollection) to the
// listeners that subscribed to them, without either side holding a direct
// reference to the other. Each workspace session owns exactly one Hub.
//
// # Subscriptions
//
// A subscription is the tuple (listener, kind, handler, filter). A listener
// holds at most one subscription per kind; subscribing again for the same kind
// replaces the handler and filter but keeps the original delivery position.
//
// Dispatch is polymorphic over the message.Kind hierarchy: a subscription for
// message.KindSubset receives SubsetCreateMessage, SubsetUpdateMessage and
// SubsetDeleteMessage.
//
// # Delivery
//
// Broadcast is synchronous. Matching handlers run in subscription order on the
// caller's goroutine before Broadcast returns; nothing is queued. By default
// every handler runs even if an earlier one fails, and the failures are
// returned together as a joined error of *DeliveryError values. Config.FailFast
// stops at the first failure instead. Handler panics are recovered and reported
// as errors wrapping ErrHandlerPanic.
//
// The registry is snapshotted before delivery, so handlers may subscribe,
// unsubscribe or broadcast re-entrantly; registry changes made during a
// broadcast apply from the next one.
//
// # Lifecycle
//
// Close disposes the hub and unsubscribes every listener. A closed hub rejects
// further subscriptions and broadcasts with ErrHubClosed.
package hub
