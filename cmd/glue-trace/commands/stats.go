package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/trace"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[trace.Category]int
	BroadcastsByKind map[message.Kind]int
	Senders          map[string]*SenderStats
	Listeners        map[string]int
	Hubs             map[string]int
	Deliveries       int
	FailedBroadcasts int
	FailedDeliveries int
	AbortedCount     int
	TotalDuration    time.Duration
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SenderStats holds statistics for a single sender.
type SenderStats struct {
	Label      string
	Broadcasts int
	Failed     int
	FirstSeen  time.Time
	LastSeen   time.Time
}

func newStats() *Stats {
	return &Stats{
		EventsByCategory: make(map[trace.Category]int),
		BroadcastsByKind: make(map[message.Kind]int),
		Senders:          make(map[string]*SenderStats),
		Listeners:        make(map[string]int),
		Hubs:             make(map[string]int),
	}
}

func (s *Stats) add(event trace.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.Hubs[event.HubID]++

	// Track time range
	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	switch {
	case event.Delivery != nil:
		s.BroadcastsByKind[event.Kind]++
		s.Deliveries += event.Delivery.Matched
		s.FailedDeliveries += event.Delivery.Failed
		s.TotalDuration += event.Delivery.Duration
		if event.Failed() {
			s.FailedBroadcasts++
		}
		if event.Delivery.Aborted {
			s.AbortedCount++
		}

		sender, ok := s.Senders[event.SenderID]
		if !ok {
			sender = &SenderStats{Label: event.SenderLabel, FirstSeen: event.Timestamp}
			s.Senders[event.SenderID] = sender
		}
		sender.Broadcasts++
		if event.Failed() {
			sender.Failed++
		}
		if event.Timestamp.After(sender.LastSeen) {
			sender.LastSeen = event.Timestamp
		}

	case event.Registry != nil:
		if event.Registry.Action == trace.ActionSubscribe && event.Registry.Listener != "" {
			s.Listeners[event.Registry.Listener]++
		}
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, filter trace.Filter, w io.Writer) error {
	reader, err := trace.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Glue Hub Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Hubs:         %d\n", len(stats.Hubs))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []trace.Category{trace.CategoryBroadcast, trace.CategoryRegistry} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Broadcasts by Kind:")
	for _, k := range message.Kinds() {
		if count := stats.BroadcastsByKind[k]; count > 0 {
			fmt.Fprintf(w, "  %-30s %d\n", k.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Deliveries: %d", stats.Deliveries)
	if n := stats.EventsByCategory[trace.CategoryBroadcast]; n > 0 {
		fmt.Fprintf(w, " (avg broadcast %s)", formatDuration(stats.TotalDuration/time.Duration(n)))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Senders: %d\n", len(stats.Senders))
	if len(stats.Senders) > 0 {
		type senderInfo struct {
			id    string
			stats *SenderStats
		}
		senders := make([]senderInfo, 0, len(stats.Senders))
		for id, ss := range stats.Senders {
			senders = append(senders, senderInfo{id, ss})
		}
		sort.Slice(senders, func(i, j int) bool {
			return senders[i].stats.FirstSeen.Before(senders[j].stats.FirstSeen)
		})

		for _, s := range senders {
			fmt.Fprintf(w, "  [%s] %s: %d broadcasts", shortenID(s.id), s.stats.Label, s.stats.Broadcasts)
			if s.stats.Failed > 0 {
				fmt.Fprintf(w, ", %d failed", s.stats.Failed)
			}
			fmt.Fprintln(w)
		}
	}

	if len(stats.Listeners) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Listeners: %d\n", len(stats.Listeners))
		names := make([]string, 0, len(stats.Listeners))
		for name := range stats.Listeners {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d subscriptions\n", name, stats.Listeners[name])
		}
	}

	if stats.FailedBroadcasts > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Failed Broadcasts: %d (%d handler errors", stats.FailedBroadcasts, stats.FailedDeliveries)
		if stats.AbortedCount > 0 {
			fmt.Fprintf(w, ", %d aborted", stats.AbortedCount)
		}
		fmt.Fprintln(w, ")")
	}
}
