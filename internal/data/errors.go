package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrJobNotFound is returned when no job matches the requested ID.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobIDRequired is returned when an operation needs a job ID and got none.
	ErrJobIDRequired = errors.New("job_id is required")
	// ErrInvalidStatus is returned when a status update carries an unknown status.
	ErrInvalidStatus = errors.New("invalid job status")
)
