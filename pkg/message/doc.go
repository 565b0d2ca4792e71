// Package message defines the typed events broadcast on a glue Hub.
//
// # Kind Hierarchy
//
// Every message carries a Kind tag. Kinds form a closed tree so that a
// subscriber registered for an ancestor kind receives all derived kinds:
//
//	Message
//	├── SubsetMessage
//	│   ├── SubsetCreateMessage
//	│   ├── SubsetUpdateMessage
//	│   └── SubsetDeleteMessage
//	├── DataMessage
//	│   └── DataUpdateMessage
//	└── DataCollectionMessage
//	    ├── DataCollectionActiveChange
//	    ├── DataCollectionAddMessage
//	    └── DataCollectionDeleteMessage
//
// # Senders
//
// A message references the object that originated it (a Subset, a Data or a
// DataCollection) through the Sender interface. Messages never hold a
// reference to the Hub that delivers them.
//
// Messages are immutable once constructed.
package message
