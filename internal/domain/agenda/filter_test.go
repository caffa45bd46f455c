package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

func ids(jobs []model.Job) []string {
	out := make([]string, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobs[i].ID)
	}
	return out
}

func TestApplyFilters_EmptyInput(t *testing.T) {
	cal := DefaultCalendar()
	now := mustTime(t, "2025-12-31T12:00:00Z")
	criteria := Criteria{Range: RangeSpec{Name: RangeToday}, Now: now}

	assert.Empty(t, cal.ApplyFilters(nil, criteria))
	assert.Empty(t, cal.FilterAndSort([]model.Job{}, criteria))
	assert.Empty(t, cal.DetectConflicts(nil))
}

func TestApplyFilters_SpansReferenceMidnight(t *testing.T) {
	cal := DefaultCalendar()
	jobs := []model.Job{{ID: "a", ScheduledStart: "2025-12-31T04:30:00Z", ScheduledEnd: "2025-12-31T06:30:00Z"}}

	got := cal.ApplyFilters(jobs, Criteria{
		Range: RangeSpec{Name: RangeToday},
		Now:   mustTime(t, "2025-12-31T12:00:00Z"),
	})
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestApplyFilters_Next3Days(t *testing.T) {
	cal := DefaultCalendar()
	jobs := []model.Job{
		{ID: "in", ScheduledStart: "2026-01-02T15:00:00Z"},
		{ID: "out", ScheduledStart: "2026-01-04T15:00:00Z"},
	}
	got := cal.ApplyFilters(jobs, Criteria{
		Range: RangeSpec{Name: RangeNext3Days},
		Now:   mustTime(t, "2025-12-31T12:00:00Z"),
	})
	assert.Equal(t, []string{"in"}, ids(got))
}

func TestApplyFilters_PartOnlyWindows(t *testing.T) {
	cal := DefaultCalendar()
	now := mustTime(t, "2026-01-14T15:00:00Z")
	jobs := []model.Job{
		{ID: "today-part", Parts: []model.JobPart{
			{ID: "p1", ScheduledStart: "2026-01-10T15:00:00Z", ScheduledEnd: "2026-01-10T16:00:00Z"},
			{ID: "p2", ScheduledStart: "2026-01-14T18:00:00Z", ScheduledEnd: "2026-01-14T19:00:00Z"},
		}},
		{ID: "other-day", Parts: []model.JobPart{
			{ID: "p3", ScheduledStart: "2026-01-15T18:00:00Z", ScheduledEnd: "2026-01-15T19:00:00Z"},
		}},
		{ID: "date-only-part", Parts: []model.JobPart{{ID: "p4", ScheduledStart: "2026-01-14"}}},
		{ID: "no-schedule"},
	}
	criteria := Criteria{Range: RangeSpec{Name: RangeToday}, Now: now}

	assert.Equal(t, []string{"today-part", "date-only-part"}, ids(cal.ApplyFilters(jobs, criteria)))

	criteria.Flags.DisablePartWindows = true
	assert.Empty(t, cal.ApplyFilters(jobs, criteria))
}

func TestApplyFilters_PromisedDate(t *testing.T) {
	cal := DefaultCalendar()
	now := mustTime(t, "2026-01-14T15:00:00Z")
	jobs := []model.Job{
		{ID: "promise-today", Status: model.JobStatusPromised, PromisedDate: "2026-01-14"},
		{ID: "promise-tomorrow", Status: model.JobStatusPromised, PromisedDate: "2026-01-15"},
		{ID: "part-promise", Parts: []model.JobPart{{ID: "p1", PromisedDate: "2026-01-14T00:00:00.000Z"}}},
		{ID: "timed-elsewhere", PromisedDate: "2026-01-14", ScheduledStart: "2026-01-20T15:00:00Z"},
	}
	criteria := Criteria{Range: RangeSpec{Name: RangeToday}, Now: now}

	assert.Equal(t, []string{"promise-today", "part-promise"}, ids(cal.ApplyFilters(jobs, criteria)))

	criteria.Flags.DisableAllDayPromises = true
	assert.Empty(t, cal.ApplyFilters(jobs, criteria))
}

func TestApplyFilters_Assignee(t *testing.T) {
	cal := DefaultCalendar()
	jobs := []model.Job{
		{ID: "mine", DeliveryCoordinatorID: "dc-1"},
		{ID: "theirs", DeliveryCoordinatorID: "dc-2"},
		{ID: "assigned", AssignedTo: "dc-1"},
	}

	got := cal.ApplyFilters(jobs, Criteria{Assignee: AssigneeFilter{Me: true, ID: "dc-1"}})
	assert.Equal(t, []string{"mine", "assigned"}, ids(got))

	got = cal.ApplyFilters(jobs, Criteria{Assignee: AssigneeFilter{Me: true}})
	assert.Len(t, got, 3, "missing coordinator id disables the stage")
}

func TestApplyFilters_Location(t *testing.T) {
	cal := DefaultCalendar()
	jobs := []model.Job{
		{ID: "no-parts"},
		{ID: "in-house", Parts: []model.JobPart{{ID: "p1"}}},
		{ID: "off-site", Parts: []model.JobPart{{ID: "p2", IsOffSite: true}}},
		{ID: "mixed", Parts: []model.JobPart{{ID: "p3", IsOffSite: true}, {ID: "p4"}}},
	}

	tests := []struct {
		location model.Location
		want     []string
	}{
		{location: "", want: []string{"no-parts", "in-house", "off-site", "mixed"}},
		{location: model.LocationAll, want: []string{"no-parts", "in-house", "off-site", "mixed"}},
		{location: model.LocationInHouse, want: []string{"no-parts", "in-house"}},
		{location: model.LocationOffSite, want: []string{"off-site"}},
		{location: model.LocationMixed, want: []string{"mixed"}},
		{location: model.Location("Mars"), want: []string{"no-parts", "in-house", "off-site", "mixed"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.location), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(cal.ApplyFilters(jobs, Criteria{Location: tt.location})))
		})
	}
}

func TestApplyFilters_StagesCompose(t *testing.T) {
	cal := DefaultCalendar()
	now := mustTime(t, "2026-01-14T15:00:00Z")
	jobs := []model.Job{
		{ID: "1", ScheduledStart: "2026-01-14T16:00:00Z", DeliveryCoordinatorID: "dc-1", Title: "Tint"},
		{ID: "2", ScheduledStart: "2026-01-14T17:00:00Z", DeliveryCoordinatorID: "dc-1", Title: "Detail"},
		{ID: "3", ScheduledStart: "2026-01-14T18:00:00Z", DeliveryCoordinatorID: "dc-2", Title: "Tint"},
		{ID: "4", ScheduledStart: "2026-01-16T16:00:00Z", DeliveryCoordinatorID: "dc-1", Title: "Tint"},
		{ID: "5", ScheduledStart: "2026-01-14T19:00:00Z", DeliveryCoordinatorID: "dc-1", Title: "Tint",
			Parts: []model.JobPart{{ID: "p", IsOffSite: true}}},
	}
	got := cal.ApplyFilters(jobs, Criteria{
		Range:    RangeSpec{Name: RangeToday},
		Now:      now,
		Assignee: AssigneeFilter{Me: true, ID: "dc-1"},
		Location: model.LocationInHouse,
		Query:    "tint",
	})
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestApplyFilters_NoCriteriaKeepsOrder(t *testing.T) {
	cal := DefaultCalendar()
	jobs := []model.Job{
		{ID: "c", ScheduledStart: "2026-01-16T16:00:00Z"},
		{ID: "a"},
		{ID: "b", ScheduledStart: "2026-01-14T16:00:00Z"},
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids(cal.ApplyFilters(jobs, Criteria{})))
}

func TestApplyFilters_PanicsWithoutNow(t *testing.T) {
	cal := DefaultCalendar()
	assert.Panics(t, func() {
		cal.ApplyFilters([]model.Job{{ID: "a"}}, Criteria{Range: RangeSpec{Name: RangeWeek}})
	})
}

func TestFilterAndSort(t *testing.T) {
	cal := DefaultCalendar()
	jobs := []model.Job{
		{ID: "unscheduled"},
		{ID: "late", ScheduledStart: "2026-01-14T20:00:00Z"},
		{ID: "early-part", ScheduledStart: "2026-01-14T21:00:00Z", Parts: []model.JobPart{{ScheduledStart: "2026-01-14T13:00:00Z"}}},
		{ID: "tie-1", ScheduledStart: "2026-01-14T16:00:00Z"},
		{ID: "tie-2", ScheduledStart: "2026-01-14T16:00:00Z"},
		{ID: "promise", PromisedDate: "2026-01-14"},
	}
	got := cal.FilterAndSort(jobs, Criteria{})
	assert.Equal(t, []string{"promise", "early-part", "tie-1", "tie-2", "late", "unscheduled"}, ids(got))
}

func TestPartWindowsDisabled_AnchorsOnJobWindow(t *testing.T) {
	cal := DefaultCalendar()
	now := mustTime(t, "2026-01-14T15:00:00Z")
	jobs := []model.Job{
		{ID: "late", ScheduledStart: "2026-01-14T20:00:00Z"},
		{ID: "early-part", ScheduledStart: "2026-01-14T21:00:00Z", ScheduledEnd: "2026-01-14T22:00:00Z",
			Parts: []model.JobPart{{ScheduledStart: "2026-01-13T15:00:00Z", ScheduledEnd: "2026-01-13T16:00:00Z"}}},
	}
	criteria := Criteria{Range: RangeSpec{Name: RangeToday}, Now: now, Flags: Flags{DisablePartWindows: true}}

	got := cal.FilterAndSort(jobs, criteria)
	assert.Equal(t, []string{"late", "early-part"}, ids(got))

	items := cal.Annotate(got, now, nil, criteria.Flags)
	require.Len(t, items, 2)
	assert.Equal(t, "2026-01-14", items[1].DateKey)
	assert.Equal(t, "4:00 PM – 5:00 PM", items[1].TimeWindow)

	// With part windows on, the same job anchors on its part's day.
	items = cal.Annotate(got, now, nil, Flags{})
	assert.Equal(t, "2026-01-13", items[1].DateKey)
}

func TestAnnotateAndGroup(t *testing.T) {
	cal := DefaultCalendar()
	now := mustTime(t, "2026-01-14T17:00:00Z")
	jobs := []model.Job{
		{ID: "tomorrow", Status: model.JobStatusPromised, PromisedDate: "2026-01-15"},
		{ID: "nodate", Status: model.JobStatusPending},
		{ID: "today", Status: model.JobStatusScheduled, VendorID: "v1",
			ScheduledStart: "2026-01-14T15:00:00Z", ScheduledEnd: "2026-01-14T16:30:00Z"},
		{ID: "today-2", Status: model.JobStatusBooked, VendorID: "v1",
			ScheduledStart: "2026-01-14T16:00:00Z", ScheduledEnd: "2026-01-14T18:00:00Z",
			Parts: []model.JobPart{{ID: "p", IsOffSite: true}}},
	}
	conflicts := cal.DetectConflicts(LiveBookings(jobs))
	items := cal.Annotate(jobs, now, conflicts, Flags{})
	require.Len(t, items, 4)

	byID := make(map[string]model.AgendaItem, len(items))
	for _, it := range items {
		byID[it.Job.ID] = it
	}

	today := byID["today"]
	assert.Equal(t, model.JobStatusInProgress, today.EffectiveStatus)
	assert.Equal(t, "2026-01-14", today.DateKey)
	assert.Equal(t, "Jan 14, 2026", today.DisplayDate)
	assert.Equal(t, "10:00 AM – 11:30 AM", today.TimeWindow)
	assert.False(t, today.AllDay)
	assert.True(t, today.Conflict)
	assert.Equal(t, model.LocationInHouse, today.Location)
	assert.True(t, today.Start.Equal(mustTime(t, "2026-01-14T15:00:00Z")))

	assert.True(t, byID["today-2"].Conflict)
	assert.Equal(t, model.LocationOffSite, byID["today-2"].Location)

	promise := byID["tomorrow"]
	assert.Equal(t, model.JobStatusPromised, promise.EffectiveStatus)
	assert.Equal(t, "2026-01-15", promise.DateKey)
	assert.True(t, promise.AllDay)
	assert.Empty(t, promise.TimeWindow)
	assert.False(t, promise.Conflict)

	nodate := byID["nodate"]
	assert.Equal(t, Unscheduled, nodate.DateKey)
	assert.True(t, nodate.Start.IsZero())

	days := GroupByDay(items)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-01-14", days[0].DateKey)
	assert.Equal(t, "2026-01-15", days[1].DateKey)
	assert.Equal(t, Unscheduled, days[2].DateKey)
	require.Len(t, days[0].Items, 2)
	assert.Equal(t, "today", days[0].Items[0].Job.ID)
	assert.Equal(t, "today-2", days[0].Items[1].Job.ID)
}

func TestGroupByDay_Empty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil))
}

func TestLocationOf(t *testing.T) {
	assert.Equal(t, model.LocationInHouse, LocationOf(&model.Job{}))
	assert.Equal(t, model.LocationMixed, LocationOf(&model.Job{Parts: []model.JobPart{{IsOffSite: true}, {}}}))
}

func TestCriteriaWeekBoundaries(t *testing.T) {
	cal := NewCalendar(nil, WithWeekStart(time.Monday))
	jobs := []model.Job{
		{ID: "sun", ScheduledStart: "2026-01-04T15:00:00Z"},
		{ID: "mon", ScheduledStart: "2026-01-05T15:00:00Z"},
		{ID: "next-mon", ScheduledStart: "2026-01-12T15:00:00Z"},
	}
	got := cal.ApplyFilters(jobs, Criteria{Range: RangeSpec{Name: RangeWeek}, Now: mustTime(t, "2026-01-07T15:00:00Z")})
	assert.Equal(t, []string{"mon"}, ids(got))
}
