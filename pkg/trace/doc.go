// Package trace provides machine-readable capture of Hub traffic.
//
// Every broadcast and registry change on a Hub can be recorded as an Event.
// This is separate from operational logging (slog): a trace is a complete,
// replayable record of what was delivered to whom, for debugging linked views.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.Tracer = trace.NewSlogAdapter(slog.Default())
//
//	// For analysis: write to binary file
//	cfg.Tracer, _ = trace.NewFileLogger("session.glog")
//
//	// Both, keeping only failed broadcasts on disk
//	failed, _ := trace.OpenFile("failures.glog", trace.Filter{FailedOnly: true})
//	cfg.Tracer = trace.Tee(console, failed)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with integer keys and a
// .glog extension. A broadcast event carries a DeliveryEvent and a registry
// event a RegistryEvent; records that break this, repeat a key or nest
// deeper than an event can are rejected as ErrMalformedEvent. The glue-trace
// CLI views, filters and summarises them.
package trace
