package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dealerops/agenda-api/config"
	"github.com/dealerops/agenda-api/internal/bootstrap"
	"github.com/dealerops/agenda-api/internal/core"
	"github.com/dealerops/agenda-api/internal/data"
	"github.com/dealerops/agenda-api/internal/data/jobfile"
	"github.com/dealerops/agenda-api/internal/domain/agenda"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
	"github.com/dealerops/agenda-api/internal/service"
)

// queryOptions holds the flags shared by the agenda, conflicts and export commands.
type queryOptions struct {
	rangeName   string
	start       string
	end         string
	coordinator string
	location    string
	search      string
	statuses    []string
	now         string
	file        string
}

func (o *queryOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.rangeName, "range", "r", "today", "today, next3days, week, month, custom or empty for everything")
	f.StringVar(&o.start, "start", "", "custom range start (date or RFC3339)")
	f.StringVar(&o.end, "end", "", "custom range end; a date includes its whole day")
	f.StringVarP(&o.coordinator, "coordinator", "c", "", "only jobs for this delivery coordinator")
	f.StringVarP(&o.location, "location", "l", "", "all, in-house, off-site or mixed")
	f.StringVarP(&o.search, "query", "q", "", "free-text search")
	f.StringSliceVarP(&o.statuses, "status", "s", nil, "stored statuses to show (repeatable)")
	f.StringVar(&o.now, "now", "", "reference time (RFC3339); defaults to the current time")
	f.StringVarP(&o.file, "file", "f", "", "read jobs from a job export file instead of the database")
}

// request converts the flags into a service request using cal to read dates. Validation
// errors are prefixed with the flag they came from.
func (o *queryOptions) request(cal *agenda.Calendar) (service.AgendaRequest, error) {
	q := service.AgendaQuery{
		Range:    o.rangeName,
		Start:    o.start,
		End:      o.end,
		Location: o.location,
		Query:    o.search,
		Statuses: o.statuses,
		Now:      o.now,
	}
	if id := strings.TrimSpace(o.coordinator); id != "" {
		q.Assignee, q.CoordinatorID = "me", id
	}
	req, err := service.ParseAgendaQuery(cal, q)
	if err != nil {
		if field := apperrors.GetField(err); field != "" {
			return req, fmt.Errorf("--%s: %w", field, err)
		}
		return req, err
	}
	return req, nil
}

// openAgenda builds an AgendaService over the export file or the database. The returned
// func releases the database connection.
func (o *queryOptions) openAgenda(logger *slog.Logger) (*service.AgendaService, func(), error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	cal, err := cfg.Agenda.Calendar()
	if err != nil {
		return nil, nil, fmt.Errorf("agenda calendar: %w", err)
	}
	paths, err := cfg.Agenda.CompiledSearchPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("agenda search paths: %w", err)
	}

	var (
		source  core.JobSource
		release = func() {}
	)
	if o.file != "" {
		jobs, err := jobfile.Load(o.file)
		if err != nil {
			return nil, nil, err
		}
		source = memorySource(jobs)
	} else {
		db, err := connectDB(&cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		source = data.NewJobRepo(db, data.RepoConfig{Logger: logger, DefaultLimit: cfg.Agenda.MaxJobs})
		release = func() { _ = db.Close() }
	}

	svc, err := service.NewAgendaService(service.AgendaServiceOptions{
		Source: source,
		Settings: service.AgendaSettings{
			Calendar:    cal,
			Flags:       cfg.Agenda.PipelineFlags(),
			SearchPaths: paths,
			MaxJobs:     cfg.Agenda.MaxJobs,
		},
		Logger: logger,
	})
	if err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}

func connectDB(cfg *config.AppConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

// memorySource serves jobs decoded from an export file.
type memorySource []model.Job

var errJobNotInFile = errors.New("job not in file")

func (s memorySource) ListJobs(_ context.Context, opts model.JobListOptions) ([]model.Job, error) {
	out := slices.Clone([]model.Job(s))
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s memorySource) GetByID(_ context.Context, id string) (*model.Job, error) {
	for i := range s {
		if s[i].ID == id {
			job := s[i]
			return &job, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errJobNotInFile, id)
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
