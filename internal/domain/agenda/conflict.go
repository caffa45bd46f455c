package agenda

import (
	"slices"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// ConflictSet holds the ids of jobs that overlap another booking on the same vendor.
type ConflictSet map[string]struct{}

// Has reports whether id is conflicted.
func (s ConflictSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the conflicted ids in ascending order.
func (s ConflictSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type booking struct {
	jobID string
	iv    interval
}

// DetectConflicts marks every pair of jobs whose timed windows overlap on the same vendor.
//
// Part windows are booked against the part's vendor, falling back to the job vendor; the
// job-level window is booked against the job vendor. Windows without a vendor and date-only
// windows do not participate. Windows of the same job never conflict with each other.
// The result does not depend on input order and is the same on every run.
func (c *Calendar) DetectConflicts(jobs []model.Job) ConflictSet {
	c = c.calendarOrDefault()
	conflicts := make(ConflictSet)

	byVendor := make(map[string][]booking)
	for i := range jobs {
		for vendor, iv := range c.bookings(&jobs[i]) {
			byVendor[vendor] = append(byVendor[vendor], iv...)
		}
	}

	for _, group := range byVendor {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if a.jobID == b.jobID {
					continue
				}
				if a.iv.overlaps(b.iv) {
					conflicts[a.jobID] = struct{}{}
					conflicts[b.jobID] = struct{}{}
				}
			}
		}
	}
	return conflicts
}

func (c *Calendar) bookings(job *model.Job) map[string][]booking {
	out := make(map[string][]booking)
	add := func(vendor string, w Window) {
		if vendor == "" || !w.Timed() {
			return
		}
		if iv, ok := c.resolve(w); ok {
			out[vendor] = append(out[vendor], booking{jobID: job.ID, iv: iv})
		}
	}

	if w := c.WindowOf(job.ScheduledStart, job.ScheduledEnd); !w.Empty() {
		add(job.VendorID, w)
	}
	for i := range job.Parts {
		p := &job.Parts[i]
		vendor := p.VendorID
		if vendor == "" {
			vendor = job.VendorID
		}
		add(vendor, c.WindowOf(p.ScheduledStart, p.ScheduledEnd))
	}
	return out
}

// LiveBookings keeps jobs whose stored status represents an active appointment.
func LiveBookings(jobs []model.Job) []model.Job {
	out := make([]model.Job, 0, len(jobs))
	for i := range jobs {
		switch jobs[i].Status {
		case model.JobStatusScheduled, model.JobStatusBooked, model.JobStatusInProgress:
			out = append(out, jobs[i])
		default:
		}
	}
	return out
}
