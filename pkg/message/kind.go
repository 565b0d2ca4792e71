package message

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by ParseKind for names outside the hierarchy.
var ErrUnknownKind = errors.New("unknown message kind")

// Kind tags a message type. The zero value is KindMessage, the root of the
// hierarchy.
type Kind uint8

const (
	// KindMessage is the root kind; subscribers receive every message.
	KindMessage Kind = iota

	// KindSubset groups all subset lifecycle messages.
	KindSubset
	KindSubsetCreate
	KindSubsetUpdate
	KindSubsetDelete

	// KindData groups messages about a Data object.
	KindData
	KindDataUpdate

	// KindDataCollection groups messages sent by a DataCollection.
	KindDataCollection
	KindDataCollectionActiveChange
	KindDataCollectionAdd
	KindDataCollectionDelete

	kindCount
)

var kindParents = [kindCount]Kind{
	KindMessage:                    KindMessage,
	KindSubset:                     KindMessage,
	KindSubsetCreate:               KindSubset,
	KindSubsetUpdate:               KindSubset,
	KindSubsetDelete:               KindSubset,
	KindData:                       KindMessage,
	KindDataUpdate:                 KindData,
	KindDataCollection:             KindMessage,
	KindDataCollectionActiveChange: KindDataCollection,
	KindDataCollectionAdd:          KindDataCollection,
	KindDataCollectionDelete:       KindDataCollection,
}

var kindNames = [kindCount]string{
	KindMessage:                    "Message",
	KindSubset:                     "SubsetMessage",
	KindSubsetCreate:               "SubsetCreateMessage",
	KindSubsetUpdate:               "SubsetUpdateMessage",
	KindSubsetDelete:               "SubsetDeleteMessage",
	KindData:                       "DataMessage",
	KindDataUpdate:                 "DataUpdateMessage",
	KindDataCollection:             "DataCollectionMessage",
	KindDataCollectionActiveChange: "DataCollectionActiveChange",
	KindDataCollectionAdd:          "DataCollectionAddMessage",
	KindDataCollectionDelete:       "DataCollectionDeleteMessage",
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k < kindCount
}

// Parent returns the direct ancestor of k. The root is its own parent.
func (k Kind) Parent() Kind {
	if !k.Valid() {
		return KindMessage
	}
	return kindParents[k]
}

// IsA returns true if k equals ancestor or derives from it.
func (k Kind) IsA(ancestor Kind) bool {
	if !k.Valid() || !ancestor.Valid() {
		return false
	}
	for {
		if k == ancestor {
			return true
		}
		if k == KindMessage {
			return false
		}
		k = kindParents[k]
	}
}

// String returns the kind name.
func (k Kind) String() string {
	if !k.Valid() {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return KindMessage, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	result := make([]Kind, 0, kindCount)
	for k := KindMessage; k < kindCount; k++ {
		result = append(result, k)
	}
	return result
}
