// Package model implements the glue data model.
//
// # Entity Hierarchy
//
// A Data aggregates same-shaped Components and owns an ordered set of Subsets:
//
//	Data (catalog)
//	├── Component "ra"
//	├── Component "dec"
//	├── Component "flux"
//	├── Subset "Subset 1"   (RangeState flux in [10, 20])
//	└── Subset "Subset 2"   (ElementState {0, 4, 7})
//
// Component values are stored flattened in row-major order. A Subset's mask
// has one entry per element of that flattened layout.
//
// # Hub Ownership
//
// A Data is attached to at most one Broadcaster (normally a *hub.Hub).
// SetHub is the single write path for that reference; assigning a different
// hub once one is set fails with ErrOwnershipConflict.
//
// While a hub is attached, the entities announce their own changes:
//   - AddSubset / NewSubset broadcast SubsetCreateMessage
//   - RemoveSubset broadcasts SubsetDeleteMessage before the subset is removed
//   - Subset.SetState and Subset.SetStyle broadcast SubsetUpdateMessage
//   - Data.Broadcast, SetLabel and SetStyle broadcast DataUpdateMessage
//
// # Subset Lifecycle
//
//	Unattached ──AddSubset──> Attached ──RemoveSubset──> Removed
//
// Removed is terminal. A removed subset cannot produce a mask and cannot be
// attached again.
package model
