package agenda

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

func booked(id, vendor, start, end string, parts ...model.JobPart) model.Job {
	return model.Job{
		ID:             id,
		Status:         model.JobStatusScheduled,
		VendorID:       vendor,
		ScheduledStart: start,
		ScheduledEnd:   end,
		Parts:          parts,
	}
}

func TestDetectConflicts(t *testing.T) {
	cal := DefaultCalendar()

	tests := []struct {
		name string
		jobs []model.Job
		want []string
	}{
		{
			name: "empty",
			want: []string{},
		},
		{
			name: "overlap on same vendor",
			jobs: []model.Job{
				booked("a", "v1", "2026-01-14T14:00:00Z", "2026-01-14T16:00:00Z"),
				booked("b", "v1", "2026-01-14T15:00:00Z", "2026-01-14T17:00:00Z"),
				booked("c", "v1", "2026-01-14T18:00:00Z", "2026-01-14T19:00:00Z"),
			},
			want: []string{"a", "b"},
		},
		{
			name: "different vendors",
			jobs: []model.Job{
				booked("a", "v1", "2026-01-14T14:00:00Z", "2026-01-14T16:00:00Z"),
				booked("b", "v2", "2026-01-14T15:00:00Z", "2026-01-14T17:00:00Z"),
			},
			want: []string{},
		},
		{
			name: "back to back",
			jobs: []model.Job{
				booked("a", "v1", "2026-01-14T14:00:00Z", "2026-01-14T15:00:00Z"),
				booked("b", "v1", "2026-01-14T15:00:00Z", "2026-01-14T16:00:00Z"),
			},
			want: []string{},
		},
		{
			name: "no vendor",
			jobs: []model.Job{
				booked("a", "", "2026-01-14T14:00:00Z", "2026-01-14T16:00:00Z"),
				booked("b", "", "2026-01-14T15:00:00Z", "2026-01-14T17:00:00Z"),
			},
			want: []string{},
		},
		{
			name: "date only windows ignored",
			jobs: []model.Job{
				booked("a", "v1", "2026-01-14", ""),
				booked("b", "v1", "2026-01-14", ""),
			},
			want: []string{},
		},
		{
			name: "part windows of the same job",
			jobs: []model.Job{
				booked("a", "v1", "2026-01-14T14:00:00Z", "2026-01-14T16:00:00Z",
					model.JobPart{ID: "p1", ScheduledStart: "2026-01-14T15:00:00Z", ScheduledEnd: "2026-01-14T17:00:00Z"}),
			},
			want: []string{},
		},
		{
			name: "part vendor overrides job vendor",
			jobs: []model.Job{
				booked("a", "v1", "", "",
					model.JobPart{ID: "p1", VendorID: "tint", ScheduledStart: "2026-01-14T15:00:00Z", ScheduledEnd: "2026-01-14T17:00:00Z"}),
				booked("b", "tint", "2026-01-14T16:00:00Z", "2026-01-14T18:00:00Z"),
				booked("c", "v1", "2026-01-14T16:00:00Z", "2026-01-14T18:00:00Z"),
			},
			want: []string{"a", "b"},
		},
		{
			name: "part falls back to job vendor",
			jobs: []model.Job{
				booked("a", "v1", "", "",
					model.JobPart{ID: "p1", ScheduledStart: "2026-01-14T15:00:00Z", ScheduledEnd: "2026-01-14T17:00:00Z"}),
				booked("b", "v1", "2026-01-14T16:00:00Z", "2026-01-14T18:00:00Z"),
			},
			want: []string{"a", "b"},
		},
		{
			name: "point booking inside another",
			jobs: []model.Job{
				booked("a", "v1", "2026-01-14T14:00:00Z", "2026-01-14T16:00:00Z"),
				booked("b", "v1", "2026-01-14T15:00:00Z", ""),
			},
			want: []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.DetectConflicts(tt.jobs).IDs())
		})
	}
}

func TestDetectConflicts_SymmetricAndIdempotent(t *testing.T) {
	cal := DefaultCalendar()
	jobs := []model.Job{
		booked("a", "v1", "2026-01-14T14:00:00Z", "2026-01-14T16:00:00Z"),
		booked("b", "v1", "2026-01-14T15:00:00Z", "2026-01-14T17:00:00Z"),
		booked("c", "v2", "2026-01-14T15:00:00Z", "2026-01-14T17:00:00Z"),
		booked("d", "v2", "2026-01-14T16:30:00Z", "2026-01-14T18:00:00Z"),
		booked("e", "v3", "2026-01-14T16:30:00Z", "2026-01-14T18:00:00Z"),
	}

	first := cal.DetectConflicts(jobs)
	second := cal.DetectConflicts(jobs)
	assert.Equal(t, first, second)

	reversed := slices.Clone(jobs)
	slices.Reverse(reversed)
	assert.Equal(t, first, cal.DetectConflicts(reversed))

	assert.Equal(t, []string{"a", "b", "c", "d"}, first.IDs())
	assert.True(t, first.Has("a") && first.Has("b"))
	assert.False(t, first.Has("e"))
}

func TestLiveBookings(t *testing.T) {
	jobs := []model.Job{
		{ID: "1", Status: model.JobStatusScheduled},
		{ID: "2", Status: model.JobStatusCompleted},
		{ID: "3", Status: model.JobStatusInProgress},
		{ID: "4", Status: model.JobStatusCancelled},
		{ID: "5", Status: model.JobStatusBooked},
		{ID: "6", Status: model.JobStatusDraft},
	}
	var ids []string
	for _, j := range LiveBookings(jobs) {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"1", "3", "5"}, ids)
	assert.Empty(t, LiveBookings(nil))
}
