package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNaiveDate is returned for date bounds that carry no timezone.
var ErrNaiveDate = errors.New("dates are expected to be timezone-aware")

// DateFormat is the day-level layout used in SCM command lines.
const DateFormat = "2006-01-02"

// DateTimeFormat is the layout used when printing dates in reports.
const DateTimeFormat = "2006-01-02 15:04:05"

// Now returns the current time in UTC. Tests may replace it.
var Now = func() time.Time {
	return time.Now().UTC()
}

// YearAgo returns from minus one calendar year.
func YearAgo(from time.Time) time.Time {
	return from.AddDate(-1, 0, 0)
}

// DefaultDateRange fills in missing bounds: before stays zero when unset,
// and after defaults to one year before before (or before now).
func DefaultDateRange(after, before time.Time) (time.Time, time.Time) {
	if after.IsZero() {
		ref := before
		if ref.IsZero() {
			ref = Now()
		}
		after = YearAgo(ref)
	}
	return after, before
}

// Define the regular expression to capture "N [units] ago"
// e.g., "2 years ago", "3 months ago", "1 week ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?\s+ago$`)

// ParseRelativeTime converts strings like "2 years ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	value, _ := strconv.Atoi(matches[1])
	switch matches[2] {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.AddDate(0, 0, -7*value), nil
	case "day":
		return now.AddDate(0, 0, -value), nil
	case "hour":
		return now.Add(time.Duration(-value) * time.Hour), nil
	default:
		return now.Add(time.Duration(-value) * time.Minute), nil
	}
}

// awareLayouts are accepted absolute layouts. Each carries a zone.
var awareLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05-0700",
}

// naiveLayouts are recognized only to report ErrNaiveDate with a clear message.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateFormat,
}

// ParseDateBound parses a date bound supplied by a user. Empty input yields
// the zero time. Relative forms ("3 months ago") are resolved against now.
// Absolute dates must carry a timezone; otherwise ErrNaiveDate is returned.
func ParseDateBound(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return time.Time{}, fmt.Errorf("%w: %q has no timezone, append Z or an offset such as +02:00", ErrNaiveDate, s)
		}
	}
	if t, err := ParseRelativeTime(s, now); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q. Expected ISO8601 with timezone or 'N [units] ago'", s)
}

// DaysBetween returns the number of whole days from start to end, ignoring the time of day.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s) / (24 * time.Hour))
}
