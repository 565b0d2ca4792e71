package trace

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
// Useful during development to watch hub traffic on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("hub_id", event.HubID),
		slog.String("category", event.Category.String()),
		slog.String("kind", event.Kind.String()),
	}

	if event.SenderID != "" {
		attrs = append(attrs, slog.String("sender_id", event.SenderID))
	}
	if event.SenderLabel != "" {
		attrs = append(attrs, slog.String("sender", event.SenderLabel))
	}
	if event.Attribute != "" {
		attrs = append(attrs, slog.String("attribute", event.Attribute))
	}

	switch {
	case event.Delivery != nil:
		attrs = append(attrs,
			slog.Int("matched", event.Delivery.Matched),
			slog.Int("failed", event.Delivery.Failed),
			slog.Duration("duration", event.Delivery.Duration),
		)
		if event.Delivery.Aborted {
			attrs = append(attrs, slog.Bool("aborted", true))
		}
	case event.Registry != nil:
		attrs = append(attrs,
			slog.String("action", event.Registry.Action.String()),
			slog.Int("subscriptions", event.Registry.Subscriptions),
		)
		if event.Registry.Listener != "" {
			attrs = append(attrs, slog.String("listener", event.Registry.Listener))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "hub", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
