package utils

import (
	"fmt"
	"strings"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// dateLayouts are tried in order; layouts carrying a time component come
// last so a bare date never picks up a spurious clock.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"02-01-2006",
	"20060102",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04",
	time.RFC3339,
}

// ParseFlexibleDate parses a date (optionally with a time-of-day) in any of
// the formats seen in uploaded transaction files.
func ParseFlexibleDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// FormatDate renders a date for reports and exports.
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}

// FormatDateTime renders a date with its time-of-day when one is recorded.
func FormatDateTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(DefaultDateFormat)
	}
	return t.Format("2006-01-02 15:04")
}
