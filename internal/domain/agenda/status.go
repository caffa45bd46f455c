package agenda

import (
	"time"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// EffectiveStatus returns the display status of job at now.
//
// A scheduled or booked job whose earliest start has been reached is shown as in progress.
// Date-only starts are reached once now's reference-zone day is on or after the scheduled
// day. Every other stored status is returned unchanged. Nothing is written back.
func (c *Calendar) EffectiveStatus(job *model.Job, now time.Time) model.JobStatus {
	c = c.calendarOrDefault()
	switch job.Status {
	case model.JobStatusScheduled, model.JobStatusBooked:
	default:
		return job.Status
	}
	start, ok := c.EarliestStart(job)
	if !ok || !c.hasStarted(start, now) {
		return job.Status
	}
	return model.JobStatusInProgress
}

// UncompleteTargetStatus returns the status a completed job reverts to when it is reopened
// for work: in progress when its start has passed or it has no schedule at all, scheduled
// otherwise.
func (c *Calendar) UncompleteTargetStatus(job *model.Job, now time.Time) model.JobStatus {
	c = c.calendarOrDefault()
	start, ok := c.EarliestStart(job)
	if !ok || c.hasStarted(start, now) {
		return model.JobStatusInProgress
	}
	return model.JobStatusScheduled
}

func (c *Calendar) hasStarted(start Moment, now time.Time) bool {
	if start.DateOnly {
		return !c.StartOfDay(now).Before(c.StartOfDay(start.At))
	}
	return !start.At.After(now)
}
