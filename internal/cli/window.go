package cli

import (
	"fmt"
	"strings"
	"time"

	"tradeledger/internal/store"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime accepts RFC3339 or a bare UTC date/time.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q: want RFC3339 or YYYY-MM-DD[ HH:MM:SS]", s)
}

func parseWindow(from, to string) (store.Window, error) {
	var w store.Window
	if strings.TrimSpace(from) != "" {
		t, err := parseTime(from)
		if err != nil {
			return w, fmt.Errorf("--from: %w", err)
		}
		w.From = &t
	}
	if strings.TrimSpace(to) != "" {
		t, err := parseTime(to)
		if err != nil {
			return w, fmt.Errorf("--to: %w", err)
		}
		w.To = &t
	}
	if w.From != nil && w.To != nil && !w.From.Before(*w.To) {
		return w, fmt.Errorf("--from must be before --to")
	}
	return w, nil
}
