package core

import (
	"context"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// Ports between the service layer and the data layer. Services depend on these
// interfaces, never on the concrete repositories.

// JobSource provides already-canonical job records to the agenda engine.
type JobSource interface {
	// ListJobs returns every job that may touch [opts.From, opts.To). A source may over-fetch;
	// exact range matching happens in the agenda engine.
	ListJobs(ctx context.Context, opts model.JobListOptions) ([]model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
}

// StatusSink persists status changes decided by the agenda engine.
type StatusSink interface {
	UpdateJobStatus(ctx context.Context, upd model.StatusUpdate) (*model.Job, error)
}

// JobRepository is a store that is both a source and a sink.
type JobRepository interface {
	JobSource
	StatusSink
}

// Clock supplies the current time to services. The data layer's TimeProvider
// implementations satisfy it.
type Clock interface {
	Now() time.Time
}
