package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/cmagness/glue/pkg/trace"
)

// ExportOptions controls the export command.
type ExportOptions struct {
	Filter trace.Filter

	// Format is "jsonl" or "csv".
	Format string

	// Output is the destination file. Empty writes to the command output.
	Output string
}

// exportRecord is the flat JSON form of a trace event with names instead of
// numeric codes.
type exportRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	HubID       string    `json:"hub_id"`
	Category    string    `json:"category"`
	Kind        string    `json:"kind"`
	SenderID    string    `json:"sender_id,omitempty"`
	SenderLabel string    `json:"sender_label,omitempty"`
	Attribute   string    `json:"attribute,omitempty"`

	Matched    *int     `json:"matched,omitempty"`
	Failed     int      `json:"failed,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	DurationNS int64    `json:"duration_ns,omitempty"`
	Aborted    bool     `json:"aborted,omitempty"`

	Action        string `json:"action,omitempty"`
	Listener      string `json:"listener,omitempty"`
	Subscriptions *int   `json:"subscriptions,omitempty"`
}

func newExportRecord(e trace.Event) exportRecord {
	r := exportRecord{
		Timestamp:   e.Timestamp.UTC(),
		HubID:       e.HubID,
		Category:    e.Category.String(),
		Kind:        e.Kind.String(),
		SenderID:    e.SenderID,
		SenderLabel: e.SenderLabel,
		Attribute:   e.Attribute,
	}
	if d := e.Delivery; d != nil {
		matched := d.Matched
		r.Matched = &matched
		r.Failed = d.Failed
		r.Errors = d.Errors
		r.DurationNS = d.Duration.Nanoseconds()
		r.Aborted = d.Aborted
	}
	if reg := e.Registry; reg != nil {
		subs := reg.Subscriptions
		r.Action = reg.Action.String()
		r.Listener = reg.Listener
		r.Subscriptions = &subs
	}
	return r
}

// RunExport exports the trace file in the requested format.
func RunExport(path string, opts ExportOptions, stdout io.Writer) error {
	switch opts.Format {
	case "jsonl", "csv":
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", opts.Format)
	}

	reader, err := trace.NewFilteredReader(path, opts.Filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	w := stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if opts.Format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *trace.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(newExportRecord(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *trace.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "hub_id", "category", "kind", "sender_id", "sender_label", "attribute", "matched", "failed", "duration_ns", "action", "listener"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var matched, failed, duration, action, listener string
		if d := event.Delivery; d != nil {
			matched = strconv.Itoa(d.Matched)
			failed = strconv.Itoa(d.Failed)
			duration = strconv.FormatInt(d.Duration.Nanoseconds(), 10)
		}
		if r := event.Registry; r != nil {
			action = r.Action.String()
			listener = r.Listener
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.HubID,
			event.Category.String(),
			event.Kind.String(),
			event.SenderID,
			event.SenderLabel,
			event.Attribute,
			matched,
			failed,
			duration,
			action,
			listener,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
