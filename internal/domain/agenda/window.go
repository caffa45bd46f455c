package agenda

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// Window is a scheduled interval. Either end may be absent (zero Moment).
type Window struct {
	Start Moment
	End   Moment
}

// Empty reports whether neither end is present.
func (w Window) Empty() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// anchor is the moment that positions the window: its start, else its end.
func (w Window) anchor() Moment {
	if !w.Start.IsZero() {
		return w.Start
	}
	return w.End
}

// Timed reports whether the window is positioned at a concrete instant rather than a whole day.
func (w Window) Timed() bool {
	a := w.anchor()
	return !a.IsZero() && !a.DateOnly
}

// WindowOf parses a start/end pair. Unparseable values are treated as absent.
func (c *Calendar) WindowOf(start, end string) Window {
	s, _ := c.ParseMoment(start)
	e, _ := c.ParseMoment(end)
	return Window{Start: s, End: e}
}

// interval is a window resolved to concrete instants. A point interval has start == end.
type interval struct {
	start time.Time
	end   time.Time
	point bool
}

func (i interval) overlaps(j interval) bool {
	switch {
	case i.point && j.point:
		return i.start.Equal(j.start)
	case i.point:
		return !i.start.Before(j.start) && i.start.Before(j.end)
	case j.point:
		return !j.start.Before(i.start) && j.start.Before(i.end)
	default:
		return i.start.Before(j.end) && i.end.After(j.start)
	}
}

// resolve turns a window into an interval. Date-only starts begin at local midnight,
// date-only ends are exclusive end-of-day, and a one-sided date-only window covers its day.
func (c *Calendar) resolve(w Window) (interval, bool) {
	switch {
	case w.Empty():
		return interval{}, false
	case w.Start.IsZero() || w.End.IsZero():
		return c.pointOrDay(w.anchor()), true
	}

	start := w.Start.At
	if w.Start.DateOnly {
		start = c.StartOfDay(start)
	}
	end := w.End.At
	if w.End.DateOnly {
		end = c.dayEnd(c.StartOfDay(end))
	}
	if !end.After(start) {
		return c.pointOrDay(w.Start), true
	}
	return interval{start: start, end: end}, true
}

func (c *Calendar) pointOrDay(m Moment) interval {
	if m.DateOnly {
		day := c.StartOfDay(m.At)
		return interval{start: day, end: c.dayEnd(day)}
	}
	return interval{start: m.At, end: m.At, point: true}
}

// IsWithinRange reports whether w overlaps the half-open query window [queryStart, queryEnd).
//
// The test is interval overlap, not containment: an appointment that starts before the
// query window and ends inside it matches. A one-sided window is a point at its present end.
// A window with neither end never matches.
func (c *Calendar) IsWithinRange(w Window, queryStart, queryEnd time.Time) bool {
	if !queryStart.Before(queryEnd) {
		return false
	}
	iv, ok := c.resolve(w)
	if !ok {
		return false
	}
	return iv.overlaps(interval{start: queryStart, end: queryEnd})
}

// Overlaps reports whether two windows share any instant. It is symmetric.
func (c *Calendar) Overlaps(a, b Window) bool {
	ia, ok := c.resolve(a)
	if !ok {
		return false
	}
	ib, ok := c.resolve(b)
	if !ok {
		return false
	}
	return ia.overlaps(ib)
}

// Windows returns every scheduled window of a job: the job-level window followed by each
// part-level window, in part order. Absent windows are skipped.
func (c *Calendar) Windows(job *model.Job, flags Flags) []Window {
	windows := make([]Window, 0, 1+len(job.Parts))
	if w := c.WindowOf(job.ScheduledStart, job.ScheduledEnd); !w.Empty() {
		windows = append(windows, w)
	}
	if flags.DisablePartWindows {
		return windows
	}
	for i := range job.Parts {
		if w := c.WindowOf(job.Parts[i].ScheduledStart, job.Parts[i].ScheduledEnd); !w.Empty() {
			windows = append(windows, w)
		}
	}
	return windows
}

// earliestWindow returns the window with the earliest anchor among Windows(job, flags).
// Ties keep the first window in Windows order.
func (c *Calendar) earliestWindow(job *model.Job, flags Flags) (Window, bool) {
	var (
		best  Window
		found bool
	)
	for _, w := range c.Windows(job, flags) {
		if !found || w.anchor().At.Before(best.anchor().At) {
			best, found = w, true
		}
	}
	return best, found
}

// EarliestStart returns the earliest scheduled start across the job and its parts.
func (c *Calendar) EarliestStart(job *model.Job) (Moment, bool) {
	w, ok := c.earliestWindow(job, Flags{})
	if !ok {
		return Moment{}, false
	}
	return w.anchor(), true
}

// RangeName names a display window relative to "now".
type RangeName string

const (
	// RangeToday is the current calendar day.
	RangeToday RangeName = "today"
	// RangeNext3Days is today plus the next two calendar days.
	RangeNext3Days RangeName = "next3days"
	// RangeWeek is the calendar week containing now.
	RangeWeek RangeName = "week"
	// RangeMonth is the calendar month containing now.
	RangeMonth RangeName = "month"
	// RangeCustom uses explicit bounds.
	RangeCustom RangeName = "custom"
)

// ParseRangeName parses a range name. An empty string yields an empty name (no date filtering).
func ParseRangeName(s string) (RangeName, error) {
	name := RangeName(strings.ToLower(strings.TrimSpace(s)))
	switch name {
	case "", RangeToday, RangeNext3Days, RangeWeek, RangeMonth, RangeCustom:
		return name, nil
	default:
		return "", fmt.Errorf("invalid range %q (valid: today, next3days, week, month, custom)", s)
	}
}

// RangeSpec selects a display window. Start and End are only read for RangeCustom.
type RangeSpec struct {
	Name  RangeName
	Start time.Time
	End   time.Time
}

// Resolve computes the concrete [start, end) for spec in the reference zone.
// It reports false when spec selects no date filtering: an empty name, or a custom range
// whose bounds are missing or inverted.
//
// Resolve panics when a named range is requested with a zero now; callers must always
// supply the current time.
func (c *Calendar) Resolve(spec RangeSpec, now time.Time) (time.Time, time.Time, bool) {
	if spec.Name == RangeCustom {
		if spec.Start.IsZero() || spec.End.IsZero() || !spec.Start.Before(spec.End) {
			return time.Time{}, time.Time{}, false
		}
		return spec.Start, spec.End, true
	}
	if spec.Name == "" {
		return time.Time{}, time.Time{}, false
	}
	if now.IsZero() {
		//nolint:forbidigo // a missing clock is an integration bug, not a runtime condition
		panic("agenda: named range " + string(spec.Name) + " resolved without now")
	}

	today := c.StartOfDay(now)
	switch spec.Name {
	case RangeToday:
		return today, today.AddDate(0, 0, 1), true
	case RangeNext3Days:
		return today, today.AddDate(0, 0, 3), true
	case RangeWeek:
		offset := (int(today.Weekday()) - int(c.weekStart) + 7) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), true
	case RangeMonth:
		y, m, _ := today.Date()
		start := time.Date(y, m, 1, 0, 0, 0, 0, c.loc)
		return start, start.AddDate(0, 1, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}
