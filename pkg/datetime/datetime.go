// Package datetime formats and parses the two kinds of time values the
// service deals with: calendar days (the buyback date) and true instants
// (created/updated timestamps).
package datetime

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DisplayLayout renders as "dd-MM-yy | hh:mm AM".
	DisplayLayout = "02-01-06 | 03:04 PM"

	// InvalidDate is returned instead of an error by the formatters.
	InvalidDate = "Invalid date"

	isoDateLayout = "2006-01-02"
)

// DisplayLayout carries a two-digit year, which reads back into this window.
// Days outside it do not survive an export and re-import.
var (
	MinDisplayDay = time.Date(1969, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxDisplayDay = time.Date(2068, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// InDisplayRange reports whether the calendar day of t can be written with
// DisplayLayout and parsed back unchanged.
func InDisplayRange(t time.Time) bool {
	day := CalendarDay(t)
	return !day.Before(MinDisplayDay) && !day.After(MaxDisplayDay)
}

// timestampLayouts are tried in order when parsing an instant.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	isoDateLayout,
}

// CalendarDay truncates t to midnight UTC of its UTC calendar day.
func CalendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ISODate renders the calendar day of t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return CalendarDay(t).Format(isoDateLayout)
}

// FormatDate formats a calendar day. The day shown is taken from the UTC
// components of t so no local offset can move it.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return CalendarDay(t).Format(DisplayLayout)
}

// FormatTimestamp formats an instant in loc. A nil loc means time.Local.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return InvalidDate
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DisplayLayout)
}

// FormatDateString parses value as an instant and formats its calendar day.
func FormatDateString(value string) string {
	t, err := ParseTimestamp(value)
	if err != nil {
		return InvalidDate
	}
	return FormatDate(t)
}

// FormatTimestampString parses value as an instant and formats it in loc.
func FormatTimestampString(value string, loc *time.Location) string {
	t, err := ParseTimestamp(value)
	if err != nil {
		return InvalidDate
	}
	return FormatTimestamp(t, loc)
}

// ParseTimestamp parses an ISO-8601 style instant. Values without a zone are
// taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp: %q", value)
}

// ParseDate parses a calendar day. Besides the ISO forms accepted by
// ParseTimestamp it understands DisplayLayout, which is what FormatDate and
// the spreadsheet export produce.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := ParseTimestamp(value); err == nil {
		return CalendarDay(t), nil
	}
	if t, err := time.Parse(DisplayLayout, value); err == nil {
		return CalendarDay(t), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date: %q", value)
}
