// Package service orchestrates the agenda engine over the job store and snapshot cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dealerops/agenda-api/internal/core"
	"github.com/dealerops/agenda-api/internal/domain/agenda"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
	"github.com/dealerops/agenda-api/internal/observability/metrics"
	"github.com/dealerops/agenda-api/internal/observability/statsd"
)

// AgendaSettings configures the engine side of AgendaService.
type AgendaSettings struct {
	Calendar    *agenda.Calendar    // Optional: defaults to agenda.DefaultCalendar()
	Flags       agenda.Flags        // Display switches passed into the pipeline
	SearchPaths []agenda.SearchPath // Extra raw-record fields for free-text search
	MaxJobs     int                 // Prefetch limit; 0 lets the source decide
	WarmLockTTL time.Duration       // How long one replica owns a warm-up; defaults to 30s
}

// AgendaServiceOptions groups dependencies for AgendaService.
type AgendaServiceOptions struct {
	Source   core.JobSource         // Required: job store
	Settings AgendaSettings         // Engine configuration
	Cache    *core.JobSnapshotCache // Optional: snapshot cache; nil fetches every time
	Clock    core.Clock             // Optional: defaults to the system clock
	Metrics  statsd.Sink            // Optional: metrics sink
	Logger   *slog.Logger           // Optional: structured logger
}

// AgendaRequest describes one agenda query. Zero-valued fields disable their filter.
type AgendaRequest struct {
	Range    agenda.RangeSpec
	Assignee agenda.AssigneeFilter
	Location model.Location
	Query    string
	// Statuses narrows the visible items by stored status. Conflicts are still computed
	// over every live booking in the window.
	Statuses []model.JobStatus
	// Now overrides the service clock for this query.
	Now time.Time
}

// AgendaService answers agenda queries: it fetches jobs for the requested window
// (through the snapshot cache when configured) and runs the agenda pipeline on them.
type AgendaService struct {
	source   core.JobSource
	settings AgendaSettings
	cal      *agenda.Calendar
	cache    *core.JobSnapshotCache
	clock    core.Clock
	metrics  statsd.Sink
	logger   *slog.Logger
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewAgendaService constructs an AgendaService.
func NewAgendaService(opts AgendaServiceOptions) (*AgendaService, error) {
	if opts.Source == nil {
		return nil, errors.New("JobSource is required")
	}
	settings := opts.Settings
	cal := settings.Calendar
	if cal == nil {
		cal = agenda.DefaultCalendar()
	}
	if settings.WarmLockTTL <= 0 {
		settings.WarmLockTTL = 30 * time.Second
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "agenda_service")
	logger.Debug("AgendaService initialized",
		"zone", cal.Location().String(),
		"week_start", cal.WeekStart().String(),
		"search_paths", len(settings.SearchPaths),
		"cache", opts.Cache != nil,
	)

	return &AgendaService{
		source:   opts.Source,
		settings: settings,
		cal:      cal,
		cache:    opts.Cache,
		clock:    clock,
		metrics:  opts.Metrics,
		logger:   logger,
	}, nil
}

// MustNewAgendaService constructs an AgendaService and panics on error.
func MustNewAgendaService(opts AgendaServiceOptions) *AgendaService {
	svc, err := NewAgendaService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create AgendaService: %v", err))
	}
	return svc
}

// Calendar returns the reference calendar used by the service.
func (s *AgendaService) Calendar() *agenda.Calendar {
	return s.cal
}

// Agenda returns the display-ready agenda for req.
func (s *AgendaService) Agenda(ctx context.Context, req AgendaRequest) (*model.AgendaView, error) {
	return s.query(ctx, "agenda", req)
}

// Conflicts returns the visible items that overlap another live booking on the same vendor.
func (s *AgendaService) Conflicts(ctx context.Context, req AgendaRequest) ([]model.AgendaItem, error) {
	view, err := s.query(ctx, "conflicts", req)
	if err != nil {
		return nil, err
	}
	out := make([]model.AgendaItem, 0, len(view.Conflicts))
	for _, item := range view.Items {
		if item.Conflict {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *AgendaService) query(ctx context.Context, op string, req AgendaRequest) (*model.AgendaView, error) {
	started := time.Now()
	now := req.Now
	if now.IsZero() {
		now = s.clock.Now()
	}
	m := metrics.AgendaMetric{Operation: op, Range: string(req.Range.Name)}

	start, end, dated := s.cal.Resolve(req.Range, now)
	jobs, source, err := s.fetch(ctx, s.listOptions(start, end, dated))
	m.Source = source
	if err != nil {
		m.Result, m.Err = metrics.ResultError, err
		metrics.EmitAgendaQuery(s.metrics, m)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	criteria := agenda.Criteria{
		Range:       req.Range,
		Now:         now,
		Assignee:    req.Assignee,
		Location:    req.Location,
		Query:       req.Query,
		Flags:       s.settings.Flags,
		SearchPaths: s.settings.SearchPaths,
	}
	visible := filterStatuses(s.cal.FilterAndSort(jobs, criteria), req.Statuses)

	// Vendor conflicts are a property of the whole window, not of the caller's filters.
	inWindow := s.cal.ApplyFilters(jobs, agenda.Criteria{Range: req.Range, Now: now, Flags: s.settings.Flags})
	conflicts := s.cal.DetectConflicts(agenda.LiveBookings(inWindow))

	items := s.cal.Annotate(visible, now, conflicts, s.settings.Flags)
	view := &model.AgendaView{
		Range:       string(req.Range.Name),
		GeneratedAt: now,
		Items:       items,
		Days:        agenda.GroupByDay(items),
		Conflicts:   conflicts.IDs(),
	}
	if dated {
		view.Start, view.End = start, end
	}
	if view.Days == nil {
		view.Days = []model.AgendaDay{}
	}

	m.Result = metrics.ResultSuccess
	m.Fetched, m.Items, m.Conflicts = len(jobs), len(items), len(view.Conflicts)
	m.Duration = time.Since(started)
	metrics.EmitAgendaQuery(s.metrics, m)
	s.logger.DebugContext(ctx, "agenda query",
		"operation", op,
		"range", req.Range.Name,
		"source", source,
		"fetched", len(jobs),
		"items", len(items),
		"conflicts", len(view.Conflicts),
	)
	return view, nil
}

func (s *AgendaService) listOptions(start, end time.Time, dated bool) model.JobListOptions {
	opts := model.JobListOptions{Limit: s.settings.MaxJobs}
	if dated {
		opts.From, opts.To = start, end
	}
	return opts
}

// fetch reads jobs through the snapshot cache. Cache failures degrade to a store read.
func (s *AgendaService) fetch(ctx context.Context, opts model.JobListOptions) ([]model.Job, string, error) {
	jobs, ok, err := s.cache.Load(ctx, opts)
	if err != nil {
		s.logger.WarnContext(ctx, "agenda cache read failed", "error", err)
	}
	if ok {
		return jobs, metrics.SourceCache, nil
	}

	jobs, err = s.source.ListJobs(ctx, opts)
	if err != nil {
		return nil, metrics.SourceStore, fmt.Errorf("list jobs: %w", err)
	}
	if err := s.cache.Store(ctx, opts, jobs); err != nil {
		s.logger.WarnContext(ctx, "agenda cache write failed", "error", err)
	}
	return jobs, metrics.SourceStore, nil
}

// Invalidate drops every cached snapshot.
func (s *AgendaService) Invalidate(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate agenda cache: %w", err)
	}
	return nil
}

// WarmResult reports one warm-up.
type WarmResult struct {
	Range   agenda.RangeName
	Jobs    int
	Skipped bool // another replica holds the warm-up lock for this window
}

// Warm refreshes the cached snapshot for the named range at the current time. Only one
// replica warms a given window per lock period.
func (s *AgendaService) Warm(ctx context.Context, name agenda.RangeName) (WarmResult, error) {
	started := time.Now()
	res := WarmResult{Range: name}
	if name == "" || name == agenda.RangeCustom {
		return res, apperrors.Validationf("warm: range %q is not a named range", name)
	}

	start, end, _ := s.cal.Resolve(agenda.RangeSpec{Name: name}, s.clock.Now())
	opts := s.listOptions(start, end, true)

	won, err := s.cache.TryLock(ctx, fmt.Sprintf("warm:%s:%d", name, start.Unix()), s.settings.WarmLockTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "warm lock failed; warming anyway", "range", name, "error", err)
		won = true
	}
	if !won {
		res.Skipped = true
		metrics.EmitWarm(s.metrics, metrics.WarmMetric{Range: string(name), Result: metrics.ResultNoop})
		return res, nil
	}

	jobs, err := s.source.ListJobs(ctx, opts)
	if err == nil {
		err = s.cache.Store(ctx, opts, jobs)
	}
	if err != nil {
		metrics.EmitWarm(s.metrics, metrics.WarmMetric{Range: string(name), Result: metrics.ResultError, Err: err})
		return res, fmt.Errorf("warm %s: %w", name, err)
	}

	res.Jobs = len(jobs)
	metrics.EmitWarm(s.metrics, metrics.WarmMetric{
		Range:    string(name),
		Result:   metrics.ResultSuccess,
		Jobs:     len(jobs),
		Duration: time.Since(started),
	})
	return res, nil
}

// Health reports the state of the snapshot cache. A failing cache is reported as
// unavailable; agenda queries keep working from the store in that state.
func (s *AgendaService) Health(ctx context.Context) error {
	if err := s.cache.Health(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "snapshot cache unavailable")
	}
	return nil
}

func filterStatuses(jobs []model.Job, statuses []model.JobStatus) []model.Job {
	if len(statuses) == 0 {
		return jobs
	}
	out := jobs[:0]
	for i := range jobs {
		if slices.Contains(statuses, jobs[i].Status) {
			out = append(out, jobs[i])
		}
	}
	return out
}
