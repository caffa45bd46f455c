// Package agenda implements the scheduling rules behind the dealership calendar: date
// normalization, range matching, effective status, vendor conflicts and the filter pipeline.
//
// Everything in this package is pure. Callers pass the current time explicitly and supply
// records that were already fetched; nothing here reads a clock or performs I/O.
package agenda

import (
	"fmt"
	"strings"
	"sync"
	"time"

	// Embed the tz database so the reference zone resolves on minimal images.
	_ "time/tzdata"
)

const (
	// DefaultZone is the reference time zone the dealership operates in.
	DefaultZone = "America/New_York"

	// Unscheduled is the date key for values without a usable date.
	Unscheduled = "unscheduled"

	dateLayout = "2006-01-02"
)

// Calendar resolves calendar-day boundaries in a fixed reference zone.
// A Calendar is immutable and safe for concurrent use.
type Calendar struct {
	loc       *time.Location
	weekStart time.Weekday
}

// CalendarOption customizes a Calendar.
type CalendarOption func(*Calendar)

// WithWeekStart sets the first day of the "week" range. Defaults to Sunday.
func WithWeekStart(day time.Weekday) CalendarOption {
	return func(c *Calendar) {
		if day >= time.Sunday && day <= time.Saturday {
			c.weekStart = day
		}
	}
}

var defaultLocation = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation(DefaultZone)
	if err != nil {
		//nolint:forbidigo // tzdata is embedded, a failure here is a broken build
		panic(fmt.Sprintf("load %s: %v", DefaultZone, err))
	}
	return loc
})

// NewCalendar builds a Calendar for loc. A nil loc selects DefaultZone.
func NewCalendar(loc *time.Location, opts ...CalendarOption) *Calendar {
	if loc == nil {
		loc = defaultLocation()
	}
	c := &Calendar{loc: loc, weekStart: time.Sunday}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadCalendar builds a Calendar from an IANA zone name.
func LoadCalendar(zone string, opts ...CalendarOption) (*Calendar, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return NewCalendar(nil, opts...), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", zone, err)
	}
	return NewCalendar(loc, opts...), nil
}

// DefaultCalendar returns a Calendar in DefaultZone with Sunday week start.
func DefaultCalendar() *Calendar {
	return NewCalendar(nil)
}

// Location returns the reference zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// WeekStart returns the first day of the week.
func (c *Calendar) WeekStart() time.Weekday {
	return c.weekStart
}

// StartOfDay returns local midnight of t's calendar day in the reference zone.
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// dayEnd returns the exclusive end of the calendar day starting at start.
// AddDate keeps wall-clock midnight across DST changes.
func (c *Calendar) dayEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, 1)
}

func (c *Calendar) calendarOrDefault() *Calendar {
	if c == nil {
		return DefaultCalendar()
	}
	return c
}
