package trace

// Logger receives trace events from a Hub. It is called synchronously from
// Broadcast and the registry operations, so implementations must be safe for
// concurrent use and should not block.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts a function to a Logger.
type LoggerFunc func(event Event)

// Log calls f.
func (f LoggerFunc) Log(event Event) { f(event) }

// NoopLogger discards all events.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Tee returns a Logger that hands every event to each non-nil logger in
// order. With no loggers it returns NoopLogger; with one it returns that
// logger unchanged. Nested tees are flattened.
func Tee(loggers ...Logger) Logger {
	var flat tee
	for _, l := range loggers {
		switch l := l.(type) {
		case nil, NoopLogger:
		case tee:
			flat = append(flat, l...)
		default:
			flat = append(flat, l)
		}
	}
	switch len(flat) {
	case 0:
		return NoopLogger{}
	case 1:
		return flat[0]
	}
	return flat
}

type tee []Logger

func (t tee) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}

// Only returns a Logger that forwards to l the events matching filter,
// e.g. only failed broadcasts or only one hub's traffic.
func Only(l Logger, filter Filter) (Logger, error) {
	m, err := filter.Compile()
	if err != nil {
		return nil, err
	}
	return LoggerFunc(func(event Event) {
		if m.Match(event) {
			l.Log(event)
		}
	}), nil
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
	_ Logger = tee(nil)
)
