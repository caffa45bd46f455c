package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/dealerops/agenda-api/internal/core"
	"github.com/dealerops/agenda-api/internal/domain/agenda"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
	"github.com/dealerops/agenda-api/internal/observability/metrics"
	"github.com/dealerops/agenda-api/internal/observability/statsd"
)

// JobStatusServiceOptions groups dependencies for JobStatusService.
type JobStatusServiceOptions struct {
	Jobs     core.JobRepository     // Required: reads the current job and persists the change
	Calendar *agenda.Calendar       // Optional: defaults to agenda.DefaultCalendar()
	Cache    *core.JobSnapshotCache // Optional: invalidated after every applied change
	Clock    core.Clock             // Optional: defaults to the system clock
	Metrics  statsd.Sink            // Optional: metrics sink
	Logger   *slog.Logger           // Optional: structured logger
}

// JobStatusService applies consumer-requested status actions. The agenda engine decides the
// target status; this service reads the job, asks the engine, and writes through the sink.
type JobStatusService struct {
	jobs    core.JobRepository
	cal     *agenda.Calendar
	cache   *core.JobSnapshotCache
	clock   core.Clock
	metrics statsd.Sink
	logger  *slog.Logger
}

// NewJobStatusService constructs a JobStatusService.
func NewJobStatusService(opts JobStatusServiceOptions) (*JobStatusService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	cal := opts.Calendar
	if cal == nil {
		cal = agenda.DefaultCalendar()
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobStatusService{
		jobs:    opts.Jobs,
		cal:     cal,
		cache:   opts.Cache,
		clock:   clock,
		metrics: opts.Metrics,
		logger:  logger.With("component", "job_status_service"),
	}, nil
}

// MustNewJobStatusService constructs a JobStatusService and panics on error.
func MustNewJobStatusService(opts JobStatusServiceOptions) *JobStatusService {
	svc, err := NewJobStatusService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobStatusService: %v", err))
	}
	return svc
}

// Apply performs action on the job. extra is passed to the sink untouched except that
// "last_action" is recorded alongside it.
//
// An unknown action is a validation error; an action that does not apply to the job's
// stored status is a conflict.
func (s *JobStatusService) Apply(
	ctx context.Context,
	jobID string,
	action agenda.Action,
	extra map[string]any,
) (*model.StatusChange, error) {
	m := metrics.TransitionMetric{Action: string(action)}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, s.fail(m, fmt.Errorf("load job: %w", err))
	}
	m.From = string(job.Status)

	target, err := s.cal.TransitionTarget(action, job, s.clock.Now())
	if err != nil {
		return nil, s.fail(m, transitionError(err))
	}
	m.To = string(target)

	payload := maps.Clone(extra)
	if payload == nil {
		payload = map[string]any{}
	}
	payload["last_action"] = string(action)

	updated, err := s.jobs.UpdateJobStatus(ctx, model.StatusUpdate{
		JobID:  job.ID,
		Status: target,
		Extra:  payload,
	})
	if err != nil {
		return nil, s.fail(m, fmt.Errorf("update job status: %w", err))
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "agenda cache invalidation failed", "job_id", job.ID, "error", err)
	}

	m.Result = metrics.ResultSuccess
	metrics.EmitStatusTransition(s.metrics, m)
	s.logger.InfoContext(ctx, "job status action applied",
		"job_id", job.ID,
		"action", action,
		"from", job.Status,
		"to", target,
	)
	return &model.StatusChange{
		JobID:  job.ID,
		Action: string(action),
		From:   job.Status,
		To:     target,
		Job:    updated,
	}, nil
}

func (s *JobStatusService) fail(m metrics.TransitionMetric, err error) error {
	m.Result, m.Err = metrics.ResultError, err
	metrics.EmitStatusTransition(s.metrics, m)
	return err
}

func transitionError(err error) error {
	switch {
	case errors.Is(err, agenda.ErrUnknownAction):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid action")
	case errors.Is(err, agenda.ErrTransitionNotAllowed):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "action does not apply")
	default:
		return err
	}
}
