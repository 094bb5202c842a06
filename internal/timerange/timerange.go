// Package timerange parses the time windows accepted by history filters.
package timerange

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Range is a half-open period [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in r.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// String formats r as inclusive dates.
func (r Range) String() string {
	return fmt.Sprintf("%s to %s", r.Start.Format(time.DateOnly), r.End.AddDate(0, 0, -1).Format(time.DateOnly))
}

// Day returns the calendar day containing ref, offset by whole days.
func Day(ref time.Time, offset int) Range {
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location()).AddDate(0, 0, offset)
	return Range{Start: start, End: start.AddDate(0, 0, 1)}
}

// Week returns the Monday to Sunday week containing ref, offset by whole
// weeks: 0 is the current week, -1 the previous one.
func Week(ref time.Time, offset int) Range {
	weekday := int(ref.Weekday())
	if weekday == 0 {
		weekday = 7 // ISO 8601 puts Sunday last
	}
	start := Day(ref, 1-weekday+offset*7).Start
	return Range{Start: start, End: start.AddDate(0, 0, 7)}
}

// Month returns the calendar month containing ref, offset by whole months.
func Month(ref time.Time, offset int) Range {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, offset, 0)
	return Range{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParseSince turns a since expression into an instant relative to now.
// Accepted forms:
//
//	today, yesterday, this-week, last-week, this-month, last-month
//	a duration such as 36h or 90m, or a day count such as 7d
//	a date (2006-01-02) or an RFC 3339 timestamp
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return time.Time{}, fmt.Errorf("empty time expression")
	case "today":
		return Day(now, 0).Start, nil
	case "yesterday":
		return Day(now, -1).Start, nil
	case "this-week":
		return Week(now, 0).Start, nil
	case "last-week":
		return Week(now, -1).Start, nil
	case "this-month":
		return Month(now, 0).Start, nil
	case "last-month":
		return Month(now, -1).Start, nil
	}

	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n >= 0 {
			return now.AddDate(0, 0, -n), nil
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return now.Add(-d), nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t, nil
	}
	// RFC 3339 is case sensitive; the input was lowered above.
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(s)); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time expression %q", s)
}
