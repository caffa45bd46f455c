package data

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
)

func TestBuildListJobsQuery(t *testing.T) {
	from := time.Date(2026, 1, 14, 5, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	t.Run("window and statuses", func(t *testing.T) {
		query, args := buildListJobsQuery(model.JobListOptions{
			From:     from,
			To:       to,
			Statuses: []model.JobStatus{model.JobStatusScheduled, model.JobStatusBooked},
		}, 50)

		require.Len(t, args, 4)
		assert.Equal(t, from.Add(-prefetchSlack), args[0])
		assert.Equal(t, to.Add(prefetchSlack), args[1])
		assert.Equal(t, []string{"scheduled", "booked"}, args[2])
		assert.Equal(t, 50, args[3])

		assert.Contains(t, query, "EXISTS (")
		assert.Contains(t, query, "j.status = ANY($3::text[])")
		assert.Contains(t, query, "LIMIT $4")
		assert.Equal(t, 2, strings.Count(query, "LEAST("))
	})

	t.Run("no window", func(t *testing.T) {
		query, args := buildListJobsQuery(model.JobListOptions{}, 10)
		assert.Equal(t, []any{10}, args)
		assert.NotContains(t, query, "WHERE")
		assert.Contains(t, query, "LIMIT $1")
	})

	t.Run("half-open options fetch everything", func(t *testing.T) {
		_, args := buildListJobsQuery(model.JobListOptions{From: from}, 10)
		assert.Len(t, args, 1)
	})
}

func TestBuildGetJobQuery(t *testing.T) {
	query, args := buildGetJobQuery("6f1c1f6e-6c8d-4a6e-9d7b-3f1d2a1b0c9e")
	assert.Contains(t, query, "WHERE j.id = $1::uuid")
	assert.Equal(t, []any{"6f1c1f6e-6c8d-4a6e-9d7b-3f1d2a1b0c9e"}, args)
}

func TestJobRow_ToModel(t *testing.T) {
	start := time.Date(2026, 1, 14, 15, 0, 0, 0, time.UTC)
	allDay := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	promised := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	year := int32(2024)
	vehicleID := "veh-1"
	make := "Subaru"
	model3 := "Outback"
	vendor := "tint-shop"

	row := jobRow{
		ID:             "job-1",
		Status:         "booked",
		CustomerName:   "Dana Whitfield",
		ScheduledStart: &start,
		ScheduledEnd:   &allDay,
		PromisedDate:   &promised,
		VendorID:       &vendor,
		Attributes:     []byte(`{"tags":["vip"]}`),
		VehicleID:      &vehicleID,
		VehicleYear:    &year,
		VehicleMake:    &make,
		VehicleModel:   &model3,
	}
	job := row.toModel()

	assert.Equal(t, model.JobStatusBooked, job.Status)
	assert.Equal(t, "2026-01-14T15:00:00Z", job.ScheduledStart)
	assert.Equal(t, "2026-01-15T00:00:00Z", job.ScheduledEnd)
	assert.Equal(t, "2026-01-16", job.PromisedDate)
	assert.Equal(t, "tint-shop", job.VendorID)
	assert.Empty(t, job.JobNumber)
	assert.JSONEq(t, `{"tags":["vip"]}`, string(job.Raw))
	require.NotNil(t, job.Vehicle)
	assert.Equal(t, "2024 Subaru Outback", job.VehicleLabel)
	assert.Equal(t, "Dana Whitfield", job.CustomerLabel)

	bare := jobRow{ID: "job-2", Status: "pending", Attributes: []byte(`not json`)}
	job = bare.toModel()
	assert.Nil(t, job.Vehicle)
	assert.Nil(t, job.Raw)
	assert.Empty(t, job.ScheduledStart)
}

func TestAttachParts(t *testing.T) {
	jobs := []model.Job{{ID: "a"}, {ID: "b"}}
	offSite := true
	parts := []partRow{
		{ID: "p1", JobID: "b", Name: "Wheels", IsOffSite: offSite},
		{ID: "p2", JobID: "a", Name: "Film"},
		{ID: "p3", JobID: "b", Name: "Tires"},
		{ID: "p4", JobID: "zzz"},
	}
	attachParts(jobs, parts)

	require.Len(t, jobs[0].Parts, 1)
	require.Len(t, jobs[1].Parts, 2)
	assert.Equal(t, "p1", jobs[1].Parts[0].ID)
	assert.True(t, jobs[1].Parts[0].IsOffSite)
	assert.Equal(t, "p3", jobs[1].Parts[1].ID)
}

func TestSplitExtra(t *testing.T) {
	at := time.Date(2026, 1, 14, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))
	extra := map[string]any{"completed_at": at, "reason": "customer pickup"}

	completedAt, attrs, err := splitExtra(extra)
	require.NoError(t, err)
	require.NotNil(t, completedAt)
	assert.Equal(t, time.UTC, completedAt.Location())
	assert.True(t, completedAt.Equal(at))
	assert.JSONEq(t, `{"reason":"customer pickup"}`, string(attrs))
	assert.Contains(t, extra, "completed_at", "caller map is not modified")

	completedAt, attrs, err = splitExtra(nil)
	require.NoError(t, err)
	assert.Nil(t, completedAt)
	assert.Equal(t, "{}", string(attrs))

	_, _, err = splitExtra(map[string]any{"completed_at": "yesterday"})
	require.Error(t, err)
	assert.Equal(t, "completed_at", apperrors.GetField(err))

	_, _, err = splitExtra(map[string]any{"bad": make(chan int)})
	require.True(t, apperrors.IsValidation(err))
}

func TestScheduleValue(t *testing.T) {
	v, err := scheduleValue("scheduled_start", "")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = scheduleValue("scheduled_start", "2026-01-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), *v)

	v, err = scheduleValue("scheduled_start", "2026-01-14T10:00:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 14, 15, 0, 0, 0, time.UTC), *v)

	_, err = scheduleValue("parts[0].scheduled_end", "soon")
	require.Error(t, err)
	assert.Equal(t, "parts[0].scheduled_end", apperrors.GetField(err))

	d, err := dateValue("promised_date", "2026-01-14T22:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), *d)
}

func TestJobInsertArgs(t *testing.T) {
	now := time.Date(2026, 1, 14, 15, 0, 0, 0, time.UTC)
	args, err := jobInsertArgs(model.Job{
		Status:   model.JobStatusScheduled,
		VendorID: " ",
		Raw:      json.RawMessage(`{"source":"dms"}`),
	}, now)
	require.NoError(t, err)
	require.Len(t, args, 17)
	assert.Nil(t, args[11], "blank vendor is stored as NULL")
	assert.Equal(t, []byte(`{"source":"dms"}`), args[15])
	assert.Equal(t, now, args[16])

	_, err = jobInsertArgs(model.Job{Raw: json.RawMessage(`{`)}, now)
	require.True(t, apperrors.IsValidation(err))
}
