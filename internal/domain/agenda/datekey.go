package agenda

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Moment is a parsed schedule value.
//
// Date-only values are anchored at local midnight of their day in the reference zone and
// mean "the whole day", not an instant.
type Moment struct {
	At       time.Time
	DateOnly bool
}

// IsZero reports whether the moment is absent.
func (m Moment) IsZero() bool {
	return m.At.IsZero()
}

type timestampLayout struct {
	layout string
	zoned  bool
}

// Accepted timestamp layouts. Zone-less timestamps are read as reference-zone wall time.
var timestampLayouts = []timestampLayout{
	{layout: time.RFC3339Nano, zoned: true},
	{layout: "2006-01-02T15:04:05.999999999Z07", zoned: true},
	{layout: "2006-01-02 15:04:05.999999999Z07:00", zoned: true},
	{layout: "2006-01-02 15:04:05.999999999Z07", zoned: true},
	{layout: "2006-01-02T15:04:05.999999999"},
	{layout: "2006-01-02 15:04:05.999999999"},
	{layout: "2006-01-02T15:04"},
}

// ParseMoment parses a date-only or timestamp value. It reports false for empty or
// unparseable input and never panics.
//
// Midnight-UTC timestamps are read as date-only values of their UTC day because upstream
// producers use them to encode a calendar date.
func (c *Calendar) ParseMoment(value string) (Moment, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return Moment{}, false
	}

	if len(v) == len(dateLayout) {
		t, err := time.ParseInLocation(dateLayout, v, c.loc)
		if err != nil {
			return Moment{}, false
		}
		return Moment{At: t, DateOnly: true}, true
	}

	for _, l := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, v)
		} else {
			t, err = time.ParseInLocation(l.layout, v, c.loc)
		}
		if err != nil {
			continue
		}
		if l.zoned && isMidnightUTC(t) {
			y, m, d := t.Date()
			return Moment{At: time.Date(y, m, d, 0, 0, 0, 0, c.loc), DateOnly: true}, true
		}
		return Moment{At: t}, true
	}
	return Moment{}, false
}

var errEmptyInstant = errors.New("empty date or timestamp")

// ParseInstant reads a caller-supplied reference time or range bound. A bare date is
// midnight of that day in the reference zone and is flagged DateOnly. Anything else must be
// an RFC3339 timestamp and names exactly that instant; unlike ParseMoment, midnight UTC is
// not read as a date.
func (c *Calendar) ParseInstant(value string) (Moment, error) {
	c = c.calendarOrDefault()
	v := strings.TrimSpace(value)
	if v == "" {
		return Moment{}, errEmptyInstant
	}
	if len(v) == len(dateLayout) {
		t, err := time.ParseInLocation(dateLayout, v, c.loc)
		if err != nil {
			return Moment{}, fmt.Errorf("invalid date %q", value)
		}
		return Moment{At: t, DateOnly: true}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return Moment{}, fmt.Errorf("invalid timestamp %q (want YYYY-MM-DD or RFC3339)", value)
	}
	return Moment{At: t}, nil
}

func isMidnightUTC(t time.Time) bool {
	if _, offset := t.Zone(); offset != 0 {
		return false
	}
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// DateKey maps a schedule value to its canonical YYYY-MM-DD day in the reference zone,
// or Unscheduled when the value is empty or unparseable.
func (c *Calendar) DateKey(value string) string {
	m, ok := c.ParseMoment(value)
	if !ok {
		return Unscheduled
	}
	return c.MomentKey(m)
}

// MomentKey returns the canonical day key of an already parsed moment.
func (c *Calendar) MomentKey(m Moment) string {
	if m.IsZero() {
		return Unscheduled
	}
	return m.At.In(c.loc).Format(dateLayout)
}

// TimeKey returns the canonical day key of an instant.
func (c *Calendar) TimeKey(t time.Time) string {
	return c.MomentKey(Moment{At: t})
}

const (
	displayDateLayout = "Jan 2, 2006"
	displayTimeLayout = "3:04 PM"
	timeRangeSep      = " – "
)

// FormatDisplayDate renders value as "Jan 2, 2006" in the reference zone.
// It returns an empty string for empty or unparseable input.
func (c *Calendar) FormatDisplayDate(value string) string {
	m, ok := c.ParseMoment(value)
	if !ok {
		return ""
	}
	return c.formatDate(m)
}

func (c *Calendar) formatDate(m Moment) string {
	if m.IsZero() {
		return ""
	}
	return m.At.In(c.loc).Format(displayDateLayout)
}

// FormatDisplayTimeWindow renders "3:04 PM – 4:30 PM" in the reference zone.
// Date-only and unparseable ends are omitted; with neither end timed the result is empty.
func (c *Calendar) FormatDisplayTimeWindow(start, end string) string {
	s, _ := c.ParseMoment(start)
	e, _ := c.ParseMoment(end)
	return c.formatTimeWindow(Window{Start: s, End: e})
}

func (c *Calendar) formatTimeWindow(w Window) string {
	var parts []string
	for _, m := range []Moment{w.Start, w.End} {
		if m.IsZero() || m.DateOnly {
			continue
		}
		parts = append(parts, m.At.In(c.loc).Format(displayTimeLayout))
	}
	return strings.Join(parts, timeRangeSep)
}
