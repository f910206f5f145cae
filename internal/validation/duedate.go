package validation

import (
	"errors"
	"time"
)

// layouts accepted for a due date. All but the first carry no zone and are
// read in local time, like a browser datetime-local input.
var dueLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var ErrBadDueDate = errors.New("invalid date-time")

// ParseDueDate parses value in any accepted layout.
func ParseDueDate(value string) (time.Time, error) {
	for i, layout := range dueLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadDueDate
}

// DueDateAllowed reports whether value is empty or a date-time not earlier
// than now truncated to the minute.
func DueDateAllowed(value string, now time.Time) bool {
	if value == "" {
		return true
	}
	d, err := ParseDueDate(value)
	if err != nil {
		return false
	}
	return !d.Before(now.Truncate(time.Minute))
}

// NormalizeDueDate converts an accepted due date to an RFC 3339 UTC string,
// the form sent to the API.
func NormalizeDueDate(value string) (string, error) {
	d, err := ParseDueDate(value)
	if err != nil {
		return "", err
	}
	return d.UTC().Format(time.RFC3339), nil
}

// FormatDueDate renders a due date for list display, relative to now:
// "Today, 3:04 PM", "Tomorrow, 9:00 AM" or "Jan 2, 3:04 PM". It returns ""
// when iso does not parse.
func FormatDueDate(iso string, now time.Time) string {
	d, err := ParseDueDate(iso)
	if err != nil {
		return ""
	}
	d = d.In(now.Location())
	day := d.Format("Jan 2")
	switch {
	case sameDay(d, now):
		day = "Today"
	case sameDay(d, now.AddDate(0, 0, 1)):
		day = "Tomorrow"
	}
	return day + ", " + d.Format("3:04 PM")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
