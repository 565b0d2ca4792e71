// Package persistence saves and restores glue workspace state.
//
// A SessionState is a YAML snapshot of a DataCollection: every data set with
// its components, style and metadata, every subset with its selection, and
// the active subset. Selections are stored as the flat indices of the
// selected elements, so any subset state round-trips as an element list.
package persistence
