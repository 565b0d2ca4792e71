package message

import "time"

// Sender is implemented by every object that can originate a message.
type Sender interface {
	// ID returns a stable unique identifier.
	ID() string

	// Label returns the display name.
	Label() string
}

// Message is the interface all broadcast messages implement.
type Message interface {
	// Kind returns the message kind tag.
	Kind() Kind

	// Sender returns the object that originated the message.
	Sender() Sender

	// Timestamp returns when the message was created.
	Timestamp() time.Time
}

// Attributed is implemented by update messages that name the changed attribute.
type Attributed interface {
	Message

	// Attribute returns the changed attribute name. Empty means unspecified.
	Attribute() string
}

// base provides the fields common to all messages.
// Embed it in concrete message types to satisfy the Message interface.
type base struct {
	kind      Kind
	sender    Sender
	timestamp time.Time
}

func (m base) Kind() Kind           { return m.kind }
func (m base) Sender() Sender       { return m.sender }
func (m base) Timestamp() time.Time { return m.timestamp }

func newBase(kind Kind, sender Sender) base {
	return base{
		kind:      kind,
		sender:    sender,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Subset Messages
// -----------------------------------------------------------------------------

// SubsetCreateMessage is sent when a subset is attached to its Data.
type SubsetCreateMessage struct {
	base
}

// NewSubsetCreateMessage creates a SubsetCreateMessage sent by subset.
func NewSubsetCreateMessage(subset Sender) SubsetCreateMessage {
	return SubsetCreateMessage{base: newBase(KindSubsetCreate, subset)}
}

// SubsetUpdateMessage is sent when a subset's selection or style changes.
type SubsetUpdateMessage struct {
	base
	attribute string
}

// NewSubsetUpdateMessage creates a SubsetUpdateMessage for the changed attribute.
func NewSubsetUpdateMessage(subset Sender, attribute string) SubsetUpdateMessage {
	return SubsetUpdateMessage{
		base:      newBase(KindSubsetUpdate, subset),
		attribute: attribute,
	}
}

// Attribute returns the changed attribute name.
func (m SubsetUpdateMessage) Attribute() string { return m.attribute }

// SubsetDeleteMessage is sent while a subset is being removed from its Data.
// The subset is still attached when handlers receive it.
type SubsetDeleteMessage struct {
	base
}

// NewSubsetDeleteMessage creates a SubsetDeleteMessage sent by subset.
func NewSubsetDeleteMessage(subset Sender) SubsetDeleteMessage {
	return SubsetDeleteMessage{base: newBase(KindSubsetDelete, subset)}
}

// -----------------------------------------------------------------------------
// Data Messages
// -----------------------------------------------------------------------------

// DataUpdateMessage is sent after a Data object changes in a way observers
// must react to.
type DataUpdateMessage struct {
	base
	attribute string
}

// NewDataUpdateMessage creates a DataUpdateMessage for the changed attribute.
func NewDataUpdateMessage(data Sender, attribute string) DataUpdateMessage {
	return DataUpdateMessage{
		base:      newBase(KindDataUpdate, data),
		attribute: attribute,
	}
}

// Attribute returns the changed attribute name.
func (m DataUpdateMessage) Attribute() string { return m.attribute }

// -----------------------------------------------------------------------------
// DataCollection Messages
// -----------------------------------------------------------------------------

// DataCollectionActiveChange is sent when the collection's active subset changes.
type DataCollectionActiveChange struct {
	base
	active Sender
}

// NewDataCollectionActiveChange creates an active-change message. active may be nil.
func NewDataCollectionActiveChange(collection Sender, active Sender) DataCollectionActiveChange {
	return DataCollectionActiveChange{
		base:   newBase(KindDataCollectionActiveChange, collection),
		active: active,
	}
}

// Active returns the newly active subset, or nil if the selection was cleared.
func (m DataCollectionActiveChange) Active() Sender { return m.active }

// DataCollectionAddMessage is sent after a Data is added to a collection.
type DataCollectionAddMessage struct {
	base
	data Sender
}

// NewDataCollectionAddMessage creates a DataCollectionAddMessage.
func NewDataCollectionAddMessage(collection Sender, data Sender) DataCollectionAddMessage {
	return DataCollectionAddMessage{
		base: newBase(KindDataCollectionAdd, collection),
		data: data,
	}
}

// Data returns the added Data.
func (m DataCollectionAddMessage) Data() Sender { return m.data }

// DataCollectionDeleteMessage is sent before a Data is dropped from a collection.
type DataCollectionDeleteMessage struct {
	base
	data Sender
}

// NewDataCollectionDeleteMessage creates a DataCollectionDeleteMessage.
func NewDataCollectionDeleteMessage(collection Sender, data Sender) DataCollectionDeleteMessage {
	return DataCollectionDeleteMessage{
		base: newBase(KindDataCollectionDelete, collection),
		data: data,
	}
}

// Data returns the Data being removed.
func (m DataCollectionDeleteMessage) Data() Sender { return m.data }

// Compile-time interface satisfaction checks.
var (
	_ Message    = SubsetCreateMessage{}
	_ Attributed = SubsetUpdateMessage{}
	_ Message    = SubsetDeleteMessage{}
	_ Attributed = DataUpdateMessage{}
	_ Message    = DataCollectionActiveChange{}
	_ Message    = DataCollectionAddMessage{}
	_ Message    = DataCollectionDeleteMessage{}
)
