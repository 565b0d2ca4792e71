package commands

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmagness/glue/pkg/hub"
	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/trace"
)

var baseTime = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func sampleEvents() []trace.Event {
	return []trace.Event{
		{
			Timestamp: baseTime,
			HubID:     "hub00001-aaaa",
			Category:  trace.CategoryRegistry,
			Kind:      message.KindSubset,
			Registry: &trace.RegistryEvent{
				Action:        trace.ActionSubscribe,
				Listener:      "viewer",
				Subscriptions: 1,
			},
		},
		{
			Timestamp:   baseTime.Add(time.Second),
			HubID:       "hub00001-aaaa",
			Category:    trace.CategoryBroadcast,
			Kind:        message.KindSubsetCreate,
			SenderID:    "sub00001-bbbb",
			SenderLabel: "Subset 1",
			Delivery:    &trace.DeliveryEvent{Matched: 1, Duration: 1500 * time.Nanosecond},
		},
		{
			Timestamp:   baseTime.Add(2 * time.Second),
			HubID:       "hub00001-aaaa",
			Category:    trace.CategoryBroadcast,
			Kind:        message.KindSubsetUpdate,
			SenderID:    "sub00001-bbbb",
			SenderLabel: "Subset 1",
			Attribute:   "subset_state",
			Delivery: &trace.DeliveryEvent{
				Matched:  2,
				Failed:   1,
				Errors:   []string{"viewer: redraw failed"},
				Duration: 2 * time.Millisecond,
				Aborted:  true,
			},
		},
		{
			Timestamp:   baseTime.Add(3 * time.Second),
			HubID:       "hub00001-aaaa",
			Category:    trace.CategoryBroadcast,
			Kind:        message.KindDataUpdate,
			SenderID:    "data0001-cccc",
			SenderLabel: "catalog",
			Attribute:   "flux",
			Delivery:    &trace.DeliveryEvent{Matched: 0},
		},
	}
}

func writeTrace(t *testing.T, events []trace.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.glog")
	logger, err := trace.NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFormatBroadcastEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[2], newPalette(false))
	output := buf.String()

	for _, want := range []string{
		"2026-03-02T09:30:02.000000Z",
		"[hub:hub00001]",
		"BROADCAST",
		"SubsetUpdateMessage",
		"Sender: Subset 1 [sub00001]",
		"Attribute: subset_state",
		"Matched: 2",
		"Duration: 2.000ms",
		"Failed: 1 (aborted)",
		"- viewer: redraw failed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("unexpected ANSI escape in uncoloured output: %q", output)
	}
}

func TestFormatRegistryEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0], newPalette(false))
	output := buf.String()

	for _, want := range []string{"REGISTRY", "SubsetMessage", "Action: SUBSCRIBE", "Listener: viewer", "Subscriptions: 1"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "Sender:") {
		t.Errorf("registry event should not have a sender line: %s", output)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Nanosecond, "1.500us"},
		{2500 * time.Microsecond, "2.500ms"},
		{1500 * time.Millisecond, "1.500s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseKindFlag(t *testing.T) {
	tests := []struct {
		in   string
		want message.Kind
	}{
		{"Subset", message.KindSubset},
		{"subsetmessage", message.KindSubset},
		{"SubsetUpdate", message.KindSubsetUpdate},
		{"DataUpdateMessage", message.KindDataUpdate},
		{"DataCollectionActiveChange", message.KindDataCollectionActiveChange},
		{"message", message.KindMessage},
	}
	for _, tt := range tests {
		got, err := ParseKindFlag(tt.in)
		if err != nil {
			t.Errorf("ParseKindFlag(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKindFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseKindFlag("bogus"); !errors.Is(err, message.ErrUnknownKind) {
		t.Errorf("ParseKindFlag(bogus) error = %v, want ErrUnknownKind", err)
	}
}

func TestFilterFlags(t *testing.T) {
	f, err := FilterFlags{
		Kind:      "Subset",
		Category:  "broadcast",
		Sender:    "Subset *",
		Failed:    true,
		TimeStart: "2026-03-02T09:30:00Z",
	}.Filter()
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if f.Kind == nil || *f.Kind != message.KindSubset {
		t.Errorf("Kind = %v", f.Kind)
	}
	if f.Category == nil || *f.Category != trace.CategoryBroadcast {
		t.Errorf("Category = %v", f.Category)
	}
	if f.TimeStart == nil || !f.TimeStart.Equal(baseTime) {
		t.Errorf("TimeStart = %v", f.TimeStart)
	}

	bad := []FilterFlags{
		{Category: "frames"},
		{Kind: "nope"},
		{TimeEnd: "yesterday"},
		{Sender: "[unclosed"},
	}
	for _, flags := range bad {
		if _, err := flags.Filter(); err == nil {
			t.Errorf("Filter(%+v) expected error", flags)
		}
	}
}

func TestRunView(t *testing.T) {
	path := writeTrace(t, sampleEvents())

	kind := message.KindSubset
	var buf bytes.Buffer
	if err := RunView(path, ViewOptions{Filter: trace.Filter{Kind: &kind}}, &buf); err != nil {
		t.Fatalf("RunView() error = %v", err)
	}
	output := buf.String()

	// The registry event subscribed to KindSubset itself, so it matches too.
	if got := strings.Count(output, "[hub:"); got != 3 {
		t.Errorf("expected 3 events, got %d: %s", got, output)
	}
	if strings.Contains(output, "catalog") {
		t.Errorf("data update should be filtered out: %s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.glog"), ViewOptions{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "failed to open trace file") {
		t.Errorf("RunView() error = %v", err)
	}
}

func TestRunStats(t *testing.T) {
	path := writeTrace(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, trace.Filter{}, &buf); err != nil {
		t.Fatalf("RunStats() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 4",
		"Hubs:         1",
		"BROADCAST:   3",
		"REGISTRY:    1",
		"SubsetCreateMessage:",
		"Deliveries: 3",
		"Senders: 2",
		"[sub00001] Subset 1: 2 broadcasts, 1 failed",
		"[data0001] catalog: 1 broadcasts",
		"Listeners: 1",
		"viewer: 1 subscriptions",
		"Failed Broadcasts: 1 (1 handler errors, 1 aborted)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := writeTrace(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunExport(path, ExportOptions{Format: "jsonl"}, &buf); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	var records []map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		records = append(records, rec)
	}
	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4", len(records))
	}
	if records[0]["action"] != "SUBSCRIBE" || records[0]["category"] != "REGISTRY" {
		t.Errorf("records[0] = %v", records[0])
	}
	if records[2]["kind"] != "SubsetUpdateMessage" || records[2]["aborted"] != true {
		t.Errorf("records[2] = %v", records[2])
	}
	// A broadcast nobody received still reports matched = 0.
	if records[3]["matched"] != float64(0) {
		t.Errorf("records[3] matched = %v, want 0", records[3]["matched"])
	}
}

func TestRunExportCSV(t *testing.T) {
	path := writeTrace(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "trace.csv")

	if err := RunExport(path, ExportOptions{Format: "csv", Output: out}, nil); err != nil {
		t.Fatalf("RunExport() error = %v", err)
	}

	rows := readCSV(t, out)
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5 (header + 4)", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][3] != "kind" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[3][6] != "subset_state" || rows[3][8] != "1" {
		t.Errorf("row 3 = %v", rows[3])
	}
	if rows[1][10] != "SUBSCRIBE" {
		t.Errorf("row 1 action = %q", rows[1][10])
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := writeTrace(t, sampleEvents())
	err := RunExport(path, ExportOptions{Format: "xml"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("RunExport() error = %v", err)
	}
}

func TestRunFilter(t *testing.T) {
	path := writeTrace(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "failed.glog")

	n, err := RunFilter(path, out, trace.Filter{FailedOnly: true})
	if err != nil {
		t.Fatalf("RunFilter() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RunFilter() = %d, want 1", n)
	}

	r, err := trace.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Kind != message.KindSubsetUpdate {
		t.Errorf("events = %+v", events)
	}

	if _, err := RunFilter(path, "", trace.Filter{}); !errors.Is(err, ErrNoOutput) {
		t.Errorf("RunFilter() without output error = %v, want ErrNoOutput", err)
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	if on, _ := colorEnabled("auto", &buf); on {
		t.Error("auto mode should disable colour for a buffer")
	}
	if on, _ := colorEnabled("always", &buf); !on {
		t.Error("always mode should enable colour")
	}
	if _, err := colorEnabled("rainbow", &buf); err == nil {
		t.Error("expected error for invalid mode")
	}
}

func TestRootCommand(t *testing.T) {
	// Produce a real trace by driving a hub.
	path := filepath.Join(t.TempDir(), "hub.glog")
	logger, err := trace.NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	h := hub.New(hub.Config{Tracer: logger})
	if err := h.Subscribe(t, message.KindData, func(message.Message) error { return nil }, nil); err != nil {
		t.Fatal(err)
	}
	if err := h.Broadcast(message.NewDataUpdateMessage(testSender{id: "d1", label: "catalog"}, "flux")); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"view", "--kind", "DataUpdate", "--color", "never", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, buf.String())
	}
	output := buf.String()
	if !strings.Contains(output, "DataUpdateMessage") || !strings.Contains(output, "Sender: catalog") {
		t.Errorf("unexpected view output: %s", output)
	}
	if strings.Contains(output, "REGISTRY") {
		t.Errorf("registry events for other kinds should be filtered: %s", output)
	}

	root = NewRootCmd()
	buf.Reset()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"stats", "--category", "bogus", path})
	if err := root.Execute(); err == nil {
		t.Error("expected error for invalid category")
	}
}

type testSender struct{ id, label string }

func (s testSender) ID() string    { return s.id }
func (s testSender) Label() string { return s.label }

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}
