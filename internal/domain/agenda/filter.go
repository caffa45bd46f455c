package agenda

import (
	"cmp"
	"slices"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// Flags are the display switches passed into the pipeline. The zero value is the default
// behaviour.
type Flags struct {
	// DisablePartWindows matches on the job-level window only.
	DisablePartWindows bool
	// DisableAllDayPromises stops promise-only jobs from matching a date range.
	DisableAllDayPromises bool
}

// AssigneeFilter narrows results to one coordinator when Me is set.
// An empty ID disables the stage.
type AssigneeFilter struct {
	Me bool
	ID string
}

// Criteria describes one agenda query. Zero-valued fields disable their stage.
type Criteria struct {
	Range       RangeSpec
	Now         time.Time
	Assignee    AssigneeFilter
	Location    model.Location
	Query       string
	Flags       Flags
	SearchPaths []SearchPath
}

// ApplyFilters returns the jobs visible under criteria, preserving input order.
//
// Stages run in order: date range, assignee, location, free text. Each stage only removes
// jobs. ApplyFilters panics if a named range is requested with a zero Now.
func (c *Calendar) ApplyFilters(jobs []model.Job, criteria Criteria) []model.Job {
	c = c.calendarOrDefault()
	out := make([]model.Job, 0, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	qs, qe, dated := c.Resolve(criteria.Range, criteria.Now)
	location := criteria.Location
	filterLocation := location.Valid() && location != model.LocationAll
	filterAssignee := criteria.Assignee.Me && criteria.Assignee.ID != ""

	for i := range jobs {
		job := &jobs[i]
		if dated && !c.inRange(job, qs, qe, criteria.Flags) {
			continue
		}
		if filterAssignee && job.AssigneeID() != criteria.Assignee.ID {
			continue
		}
		if filterLocation && LocationOf(job) != location {
			continue
		}
		if !Matches(job, criteria.Query, criteria.SearchPaths...) {
			continue
		}
		out = append(out, *job)
	}
	return out
}

func (c *Calendar) inRange(job *model.Job, qs, qe time.Time, flags Flags) bool {
	timed := false
	for _, w := range c.Windows(job, flags) {
		if c.IsWithinRange(w, qs, qe) {
			return true
		}
		timed = timed || w.Timed()
	}
	if timed || flags.DisableAllDayPromises {
		return false
	}
	promise, ok := c.promise(job)
	return ok && c.IsWithinRange(Window{Start: promise}, qs, qe)
}

// promise returns the job's promised day, falling back to the earliest part promise.
func (c *Calendar) promise(job *model.Job) (Moment, bool) {
	if m, ok := c.ParseMoment(job.PromisedDate); ok {
		return c.asDay(m), true
	}
	var (
		best  Moment
		found bool
	)
	for i := range job.Parts {
		m, ok := c.ParseMoment(job.Parts[i].PromisedDate)
		if !ok {
			continue
		}
		if !found || m.At.Before(best.At) {
			best, found = m, true
		}
	}
	if !found {
		return Moment{}, false
	}
	return c.asDay(best), true
}

func (c *Calendar) asDay(m Moment) Moment {
	return Moment{At: c.StartOfDay(m.At), DateOnly: true}
}

// displayAnchor positions a job on the calendar: its earliest window under flags, else its
// promised day. It uses the same windows inRange matches on.
func (c *Calendar) displayAnchor(job *model.Job, flags Flags) (Window, bool) {
	if w, ok := c.earliestWindow(job, flags); ok {
		return w, true
	}
	if p, ok := c.promise(job); ok {
		return Window{Start: p}, true
	}
	return Window{}, false
}

// FilterAndSort applies the pipeline and sorts the result by earliest start, ascending.
// Jobs without any schedule go last. Ties keep input order.
func (c *Calendar) FilterAndSort(jobs []model.Job, criteria Criteria) []model.Job {
	c = c.calendarOrDefault()
	out := c.ApplyFilters(jobs, criteria)

	type ranked struct {
		job       model.Job
		at        time.Time
		scheduled bool
	}
	rs := make([]ranked, len(out))
	for i := range out {
		rs[i].job = out[i]
		if w, ok := c.displayAnchor(&out[i], criteria.Flags); ok {
			rs[i].at, rs[i].scheduled = w.anchor().At, true
		}
	}
	slices.SortStableFunc(rs, func(a, b ranked) int {
		switch {
		case a.scheduled && b.scheduled:
			return a.at.Compare(b.at)
		case a.scheduled:
			return -1
		case b.scheduled:
			return 1
		default:
			return 0
		}
	})
	for i := range rs {
		out[i] = rs[i].job
	}
	return out
}

// Annotate derives the display fields of each job for one render at now. flags must match
// the ones the jobs were filtered with so each job lands on the day it matched.
func (c *Calendar) Annotate(jobs []model.Job, now time.Time, conflicts ConflictSet, flags Flags) []model.AgendaItem {
	c = c.calendarOrDefault()
	items := make([]model.AgendaItem, 0, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		item := model.AgendaItem{
			Job:             *job,
			EffectiveStatus: c.EffectiveStatus(job, now),
			DateKey:         Unscheduled,
			Conflict:        conflicts.Has(job.ID),
			Location:        LocationOf(job),
		}
		if w, ok := c.displayAnchor(job, flags); ok {
			a := w.anchor()
			item.DateKey = c.MomentKey(a)
			item.DisplayDate = c.formatDate(a)
			item.TimeWindow = c.formatTimeWindow(w)
			item.Start = a.At
			item.AllDay = a.DateOnly
		}
		items = append(items, item)
	}
	return items
}

// GroupByDay buckets items by date key, days ascending with unscheduled last.
// Items keep their relative order within a day.
func GroupByDay(items []model.AgendaItem) []model.AgendaDay {
	index := make(map[string]int)
	var days []model.AgendaDay
	for _, item := range items {
		i, ok := index[item.DateKey]
		if !ok {
			i = len(days)
			index[item.DateKey] = i
			days = append(days, model.AgendaDay{DateKey: item.DateKey})
		}
		days[i].Items = append(days[i].Items, item)
	}
	slices.SortStableFunc(days, func(a, b model.AgendaDay) int {
		switch {
		case a.DateKey == b.DateKey:
			return 0
		case a.DateKey == Unscheduled:
			return 1
		case b.DateKey == Unscheduled:
			return -1
		default:
			return cmp.Compare(a.DateKey, b.DateKey)
		}
	})
	return days
}
