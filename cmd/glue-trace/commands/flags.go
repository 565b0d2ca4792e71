package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmagness/glue/pkg/message"
	"github.com/cmagness/glue/pkg/trace"
)

// FilterFlags holds the raw filter flag values shared by every command.
type FilterFlags struct {
	Hub       string
	Kind      string
	Category  string
	SenderID  string
	Sender    string
	Failed    bool
	TimeStart string
	TimeEnd   string
}

// Filter converts the flag values into a trace.Filter.
func (f FilterFlags) Filter() (trace.Filter, error) {
	filter := trace.Filter{
		HubID:       f.Hub,
		SenderID:    f.SenderID,
		SenderLabel: f.Sender,
		FailedOnly:  f.Failed,
	}

	if f.Kind != "" {
		k, err := ParseKindFlag(f.Kind)
		if err != nil {
			return filter, err
		}
		filter.Kind = &k
	}

	if f.Category != "" {
		c, err := ParseCategoryFlag(f.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}

	if f.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, f.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if f.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, f.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	// Surface glob errors at flag parse time rather than on first read.
	if _, err := filter.Compile(); err != nil {
		return filter, err
	}
	return filter, nil
}

// ParseKindFlag parses a message kind. Both the full name
// ("SubsetUpdateMessage") and the short form without the "Message" suffix
// ("SubsetUpdate") are accepted, case-insensitively.
func ParseKindFlag(s string) (message.Kind, error) {
	want := strings.ToLower(s)
	for _, k := range message.Kinds() {
		name := strings.ToLower(k.String())
		if name == want || strings.TrimSuffix(name, "message") == want {
			return k, nil
		}
	}
	return message.ParseKind(s)
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (trace.Category, error) {
	switch strings.ToLower(s) {
	case "broadcast":
		return trace.CategoryBroadcast, nil
	case "registry":
		return trace.CategoryRegistry, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be broadcast or registry)", s)
	}
}
