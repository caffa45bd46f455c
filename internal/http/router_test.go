package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/dealerops/agenda-api/internal/core"
	"github.com/dealerops/agenda-api/internal/domain/agenda"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
	"github.com/dealerops/agenda-api/internal/export"
	"github.com/dealerops/agenda-api/internal/mocks"
	"github.com/dealerops/agenda-api/internal/service"
	"github.com/dealerops/agenda-api/internal/testutil"
)

var routerNow = time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)

type stubClock time.Time

func (c stubClock) Now() time.Time { return time.Time(c) }

type routerFixture struct {
	source  *mocks.MockJobSource
	repo    *mocks.MockJobRepository
	handler http.Handler
}

func newRouterFixture(t *testing.T, cache *core.JobSnapshotCache) *routerFixture {
	t.Helper()
	return newZonedRouterFixture(t, cache, agenda.NewCalendar(time.UTC))
}

func newZonedRouterFixture(t *testing.T, cache *core.JobSnapshotCache, cal *agenda.Calendar) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	source := mocks.NewMockJobSource(ctrl)
	repo := mocks.NewMockJobRepository(ctrl)

	agendaSvc := service.MustNewAgendaService(service.AgendaServiceOptions{
		Source:   source,
		Settings: service.AgendaSettings{Calendar: cal},
		Cache:    cache,
		Clock:    stubClock(routerNow),
	})
	statusSvc := service.MustNewJobStatusService(service.JobStatusServiceOptions{
		Jobs:     repo,
		Calendar: cal,
		Clock:    stubClock(routerNow),
	})

	return &routerFixture{
		source: source,
		repo:   repo,
		handler: NewRouter(RouterServices{
			Agenda:            agendaSvc,
			Status:            statusSvc,
			CoordinatorHeader: "X-Coordinator-ID",
		}),
	}
}

func (f *routerFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func routerJobs() []model.Job {
	return []model.Job{
		testutil.NewJob().WithID("tomorrow").WithStatus(model.JobStatusScheduled).
			WithWindow("2026-01-01T09:00:00Z", "2026-01-01T10:00:00Z").WithVendor("v1").WithCoordinator("dc-1").Build(),
		testutil.NewJob().WithID("b").WithStatus(model.JobStatusBooked).
			WithWindow("2025-12-31T09:30:00Z", "2025-12-31T11:00:00Z").WithVendor("v1").WithCoordinator("dc-2").Build(),
		testutil.NewJob().WithID("a").WithStatus(model.JobStatusScheduled).
			WithWindow("2025-12-31T09:00:00Z", "2025-12-31T10:00:00Z").WithVendor("v1").WithCoordinator("dc-1").Build(),
	}
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func itemIDs(items []model.AgendaItem) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].Job.ID
	}
	return out
}

func TestAgenda_Today(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.source.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(routerJobs(), nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda?range=today", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	view := decodeResponse[model.AgendaView](t, rec)
	assert.Equal(t, "today", view.Range)
	assert.Equal(t, []string{"a", "b"}, itemIDs(view.Items))
	assert.Equal(t, []string{"a", "b"}, view.Conflicts)
	require.Len(t, view.Days, 1)
	assert.Equal(t, "2025-12-31", view.Days[0].DateKey)
	assert.True(t, view.Start.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestAgenda_AssigneeMe(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		want   []string
	}{
		{name: "header identifies the caller", target: "/api/agenda?range=today&assignee=me", header: "dc-2", want: []string{"b"}},
		{name: "query parameter wins", target: "/api/agenda?range=today&assignee=me&coordinator_id=dc-1", header: "dc-2", want: []string{"a"}},
		{name: "no identity disables the filter", target: "/api/agenda?range=today&assignee=me", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, nil)
			f.source.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(routerJobs(), nil)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Coordinator-ID", tt.header)
			}
			rec := f.do(t, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			view := decodeResponse[model.AgendaView](t, rec)
			assert.Equal(t, tt.want, itemIDs(view.Items))
			assert.Equal(t, []string{"a", "b"}, view.Conflicts, "conflicts ignore the assignee filter")
		})
	}
}

func TestAgenda_CustomRange(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.source.EXPECT().
		ListJobs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.JobListOptions) ([]model.Job, error) {
			assert.True(t, opts.From.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)), opts.From)
			assert.True(t, opts.To.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)), "date-only end includes its day: %s", opts.To)
			return routerJobs(), nil
		})

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda?range=custom&start=2025-12-31&end=2026-01-01", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeResponse[model.AgendaView](t, rec)
	assert.Equal(t, []string{"a", "b", "tomorrow"}, itemIDs(view.Items))
}

func TestAgenda_NoRangeFetchesEverything(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.source.EXPECT().
		ListJobs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts model.JobListOptions) ([]model.Job, error) {
			assert.True(t, opts.From.IsZero())
			assert.True(t, opts.To.IsZero())
			return routerJobs(), nil
		})

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda?status=scheduled", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeResponse[model.AgendaView](t, rec)
	assert.Equal(t, []string{"a", "tomorrow"}, itemIDs(view.Items))
	assert.True(t, view.Start.IsZero())
}

func TestAgenda_InvalidParameters(t *testing.T) {
	tests := []struct {
		query string
		field string
	}{
		{query: "range=yesterday", field: "range"},
		{query: "range=custom&start=soon", field: "start"},
		{query: "range=custom&start=2025-12-31&end=later", field: "end"},
		{query: "assignee=boss", field: "assignee"},
		{query: "location=garage", field: "location"},
		{query: "status=scheduled,lost", field: "status"},
		{query: "range=today&now=noon", field: "now"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := newRouterFixture(t, nil)
			rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda?"+tt.query, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decodeResponse[errorBody](t, rec)
			assert.Equal(t, "validation", body.Error)
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestAgenda_SourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errCode string
	}{
		{
			name:    "timeout",
			err:     apperrors.MapDBError(context.DeadlineExceeded),
			status:  http.StatusGatewayTimeout,
			errCode: "timeout",
		},
		{
			name:    "unavailable",
			err:     &apperrors.AppError{Code: apperrors.ErrCodeUnavailable, Message: "database unreachable"},
			status:  http.StatusServiceUnavailable,
			errCode: "unavailable",
		},
		{
			name:    "unclassified",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			errCode: "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, nil)
			f.source.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda?range=week", nil))
			require.Equal(t, tt.status, rec.Code)
			body := decodeResponse[errorBody](t, rec)
			assert.Equal(t, tt.errCode, body.Error)
			if tt.errCode == "internal" {
				assert.NotContains(t, body.Message, "boom")
			}
		})
	}
}

func TestAgenda_NowOverride(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.source.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(routerJobs(), nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda?range=today&now=2026-01-01T08:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeResponse[model.AgendaView](t, rec)
	assert.Equal(t, []string{"tomorrow"}, itemIDs(view.Items))
	assert.True(t, view.GeneratedAt.Equal(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)))
}

func TestAgenda_NowAtMidnightUTCIsAnInstant(t *testing.T) {
	cal, err := agenda.LoadCalendar("America/New_York")
	require.NoError(t, err)
	f := newZonedRouterFixture(t, nil, cal)
	f.source.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return([]model.Job{
		testutil.NewJob().WithID("evening").WithStatus(model.JobStatusBooked).
			WithWindow("2025-12-30T20:00:00Z", "2025-12-30T21:00:00Z").Build(),
	}, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda?range=today&now=2025-12-31T00:00:00Z", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeResponse[model.AgendaView](t, rec)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "evening", view.Items[0].Job.ID)
	assert.True(t, view.GeneratedAt.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, view.Start.Equal(time.Date(2025, 12, 30, 0, 0, 0, 0, cal.Location())))
}

func TestConflicts(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.source.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(routerJobs(), nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda/conflicts?range=next3days", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeResponse[conflictsResponse](t, rec)
	assert.Equal(t, "next3days", body.Range)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"a", "b"}, itemIDs(body.Items))
	for _, item := range body.Items {
		assert.True(t, item.Conflict)
	}
}

func TestExport(t *testing.T) {
	f := newRouterFixture(t, nil)
	f.source.EXPECT().ListJobs(gomock.Any(), gomock.Any()).Return(routerJobs(), nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/agenda/export.xlsx?range=today", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="agenda-today-2025-12-31.xlsx"`, rec.Header().Get("Content-Disposition"))

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	rows, err := wb.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestJobAction(t *testing.T) {
	f := newRouterFixture(t, nil)
	job := testutil.NewJob().WithID("j1").WithStatus(model.JobStatusBooked).Build()
	f.repo.EXPECT().GetByID(gomock.Any(), "j1").Return(&job, nil)
	f.repo.EXPECT().
		UpdateJobStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, upd model.StatusUpdate) (*model.Job, error) {
			assert.Equal(t, model.JobStatusInProgress, upd.Status)
			assert.Equal(t, "vendor arrived", upd.Extra["reason"])
			assert.Equal(t, "bay 3", upd.Extra["bay"])
			updated := job
			updated.Status = upd.Status
			return &updated, nil
		})

	body := strings.NewReader(`{"reason":"vendor arrived","extra":{"bay":"bay 3"}}`)
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/j1/START", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	change := decodeResponse[model.StatusChange](t, rec)
	assert.Equal(t, "start", change.Action)
	assert.Equal(t, model.JobStatusBooked, change.From)
	assert.Equal(t, model.JobStatusInProgress, change.To)
}

func TestJobAction_EmptyBody(t *testing.T) {
	f := newRouterFixture(t, nil)
	job := testutil.NewJob().WithID("j1").WithStatus(model.JobStatusCompleted).Build()
	f.repo.EXPECT().GetByID(gomock.Any(), "j1").Return(&job, nil)
	f.repo.EXPECT().UpdateJobStatus(gomock.Any(), gomock.Any()).Return(&job, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/j1/reopen", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	change := decodeResponse[model.StatusChange](t, rec)
	assert.Equal(t, model.JobStatusQualityCheck, change.To)
}

func TestJobAction_Errors(t *testing.T) {
	t.Run("unknown action", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/j1/archive", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("transition not allowed", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		job := testutil.NewJob().WithID("j1").WithStatus(model.JobStatusCancelled).Build()
		f.repo.EXPECT().GetByID(gomock.Any(), "j1").Return(&job, nil)

		rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/j1/complete", nil))
		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "conflict", decodeResponse[errorBody](t, rec).Error)
	})

	t.Run("missing job", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, apperrors.NotFoundf("job %q", "nope"))

		rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/nope/start", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/jobs/j1/start", strings.NewReader(`{"reson":1}`)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", decodeResponse[errorBody](t, rec).Error)
	})

	t.Run("wrong method", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/jobs/j1/start", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestReadiness(t *testing.T) {
	t.Run("no cache", func(t *testing.T) {
		f := newRouterFixture(t, nil)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cache down", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cacheRepo := mocks.NewMockCacheRepository(ctrl)
		cacheRepo.EXPECT().Health(gomock.Any()).Return(errors.New("dial tcp: refused"))
		cache := core.NewJobSnapshotCache(core.JobSnapshotCacheOptions{Cache: cacheRepo, TTL: time.Minute})

		f := newRouterFixture(t, cache)
		rec := f.do(t, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "degraded")
	})
}
