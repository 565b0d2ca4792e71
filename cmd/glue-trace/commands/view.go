// Package commands implements the glue-trace CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cmagness/glue/pkg/trace"
)

// ViewOptions controls the view command.
type ViewOptions struct {
	Filter trace.Filter

	// Color enables lipgloss styling of headers and failures.
	Color bool
}

type palette struct {
	header  func(...string) string
	kind    func(...string) string
	failure func(...string) string
	muted   func(...string) string
}

func plain(strs ...string) string {
	return strings.Join(strs, " ")
}

func newPalette(color bool) palette {
	if !color {
		return palette{header: plain, kind: plain, failure: plain, muted: plain}
	}
	return palette{
		header:  lipgloss.NewStyle().Bold(true).Render,
		kind:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Render,
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Render,
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event trace.Event, p palette) {
	// Header line: timestamp [hub:id] CATEGORY Kind
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s %s %s %s\n",
		p.muted(ts),
		p.muted("[hub:"+shortenID(event.HubID)+"]"),
		p.header(event.Category.String()),
		p.kind(event.Kind.String()))

	if event.SenderLabel != "" || event.SenderID != "" {
		fmt.Fprintf(w, "  Sender: %s", event.SenderLabel)
		if event.SenderID != "" {
			fmt.Fprintf(w, " [%s]", shortenID(event.SenderID))
		}
		fmt.Fprintln(w)
	}
	if event.Attribute != "" {
		fmt.Fprintf(w, "  Attribute: %s\n", event.Attribute)
	}

	switch {
	case event.Delivery != nil:
		formatDeliveryDetails(w, event.Delivery, p)
	case event.Registry != nil:
		formatRegistryDetails(w, event.Registry)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of an ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatDeliveryDetails(w io.Writer, d *trace.DeliveryEvent, p palette) {
	fmt.Fprintf(w, "  Matched: %d", d.Matched)
	if d.Duration > 0 {
		fmt.Fprintf(w, "  Duration: %s", formatDuration(d.Duration))
	}
	fmt.Fprintln(w)

	if d.Failed > 0 {
		line := fmt.Sprintf("  Failed: %d", d.Failed)
		if d.Aborted {
			line += " (aborted)"
		}
		fmt.Fprintln(w, p.failure(line))
		for _, e := range d.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
}

func formatRegistryDetails(w io.Writer, r *trace.RegistryEvent) {
	fmt.Fprintf(w, "  Action: %s\n", r.Action.String())
	if r.Listener != "" {
		fmt.Fprintf(w, "  Listener: %s\n", r.Listener)
	}
	fmt.Fprintf(w, "  Subscriptions: %d\n", r.Subscriptions)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RunView executes the view command.
func RunView(path string, opts ViewOptions, output io.Writer) error {
	reader, err := trace.NewFilteredReader(path, opts.Filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	p := newPalette(opts.Color)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event, p)
	}
}
