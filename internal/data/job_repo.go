package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dealerops/agenda-api/internal/core"
	"github.com/dealerops/agenda-api/internal/data/pgxutil"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
)

// DefaultJobLimit caps a prefetch when neither the caller nor the config sets a limit.
const DefaultJobLimit = 2000

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
	// DefaultLimit applies when JobListOptions.Limit is zero.
	DefaultLimit int
}

var _ core.JobRepository = (*JobRepo)(nil)

// JobRepo reads jobs for the agenda and persists status changes.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
	defaultLimit int
}

// NewJobRepo creates a new JobRepo with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = DefaultJobLimit
	}
	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
		defaultLimit: limit,
	}
}

// ListJobs returns jobs whose job window, part windows or promised dates may touch
// [opts.From, opts.To), each with its parts and vehicle. A zero bound fetches without a
// date predicate.
func (r *JobRepo) ListJobs(ctx context.Context, opts model.JobListOptions) ([]model.Job, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = r.defaultLimit
	}
	query, args := buildListJobsQuery(opts, limit)

	var jobs []model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		jobs, err = loadJobs(ctx, conn, query, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", apperrors.MapDBError(err))
	}

	if len(jobs) == limit {
		r.logger.WarnContext(ctx, "job prefetch hit limit; agenda may be incomplete",
			"limit", limit, "from", opts.From, "to", opts.To)
	}
	return jobs, nil
}

// GetByID returns one job with its parts and vehicle.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound(id)
	}

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		job, err = getJob(ctx, conn, id)
		return err
	})
	if err != nil {
		return nil, mapJobErr(err, id)
	}
	return job, nil
}

// UpdateJobStatus writes upd.Status and returns the refreshed job.
//
// completed_at is stamped when the new status is completed and cleared otherwise. A
// time.Time under Extra["completed_at"] overrides the stamp; the remaining Extra entries
// are merged into the job's attributes.
func (r *JobRepo) UpdateJobStatus(ctx context.Context, upd model.StatusUpdate) (*model.Job, error) {
	if upd.JobID == "" {
		return nil, apperrors.Wrap(ErrJobIDRequired, apperrors.ErrCodeValidation, "job id is required")
	}
	if _, err := uuid.Parse(upd.JobID); err != nil {
		return nil, notFound(upd.JobID)
	}
	if !upd.Status.Valid() {
		return nil, apperrors.Wrapf(ErrInvalidStatus, apperrors.ErrCodeValidation, "status %q", upd.Status)
	}

	completedAt, attrs, err := splitExtra(upd.Extra)
	if err != nil {
		return nil, err
	}
	now := r.timeProvider.Now().UTC()

	var job *model.Job
	err = pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var id string
			row := tx.QueryRow(ctx, updateJobStatusQuery, upd.JobID, string(upd.Status), completedAt, now, attrs)
			if err := row.Scan(&id); err != nil {
				return err
			}
			var err error
			job, err = getJob(ctx, tx, id)
			return err
		},
	})
	if err != nil {
		return nil, mapJobErr(err, upd.JobID)
	}

	r.logger.InfoContext(ctx, "job status updated", "job_id", upd.JobID, "status", upd.Status)
	return job, nil
}

// splitExtra separates the completion timestamp override from attribute updates.
func splitExtra(extra map[string]any) (*time.Time, []byte, error) {
	attrs := maps.Clone(extra)
	if attrs == nil {
		attrs = map[string]any{}
	}

	var completedAt *time.Time
	if v, ok := attrs["completed_at"]; ok {
		t, isTime := v.(time.Time)
		if !isTime {
			return nil, nil, apperrors.ValidationField("completed_at", "completed_at must be a timestamp")
		}
		utc := t.UTC()
		completedAt = &utc
		delete(attrs, "completed_at")
	}

	payload, err := json.Marshal(attrs)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "extra fields must be JSON encodable")
	}
	return completedAt, payload, nil
}

func loadJobs(ctx context.Context, q pgxutil.Querier, query string, args ...any) ([]model.Job, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[jobRow])
	if err != nil {
		return nil, err
	}

	jobs := make([]model.Job, len(collected))
	ids := make([]string, len(collected))
	for i := range collected {
		jobs[i] = collected[i].toModel()
		ids[i] = jobs[i].ID
	}
	if len(ids) == 0 {
		return jobs, nil
	}

	partRows, err := q.Query(ctx, partsByJobIDsQuery, ids)
	if err != nil {
		return nil, err
	}
	parts, err := pgx.CollectRows(partRows, pgx.RowToStructByName[partRow])
	if err != nil {
		return nil, err
	}
	attachParts(jobs, parts)
	return jobs, nil
}

func getJob(ctx context.Context, q pgxutil.Querier, id string) (*model.Job, error) {
	query, args := buildGetJobQuery(id)
	jobs, err := loadJobs(ctx, q, query, args...)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &jobs[0], nil
}

func notFound(id string) error {
	return apperrors.Wrapf(ErrJobNotFound, apperrors.ErrCodeNotFound, "job %q", id)
}

func mapJobErr(err error, id string) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.IsNotFound(mapped) {
		return notFound(id)
	}
	return fmt.Errorf("job %s: %w", id, mapped)
}
