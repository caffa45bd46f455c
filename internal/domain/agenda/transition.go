package agenda

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/model"
)

// Action is a consumer-requested status change.
type Action string

const (
	// ActionStart moves a job into in progress.
	ActionStart Action = "start"
	// ActionComplete marks a job completed.
	ActionComplete Action = "complete"
	// ActionUncomplete reverts a completed job to scheduled or in progress.
	ActionUncomplete Action = "uncomplete"
	// ActionReopen sends a completed job back to quality check.
	ActionReopen Action = "reopen"
)

// ErrTransitionNotAllowed is returned when an action does not apply to a job's stored status.
var ErrTransitionNotAllowed = errors.New("status transition not allowed")

// ErrUnknownAction is returned by ParseAction for unsupported actions.
var ErrUnknownAction = errors.New("unknown action")

// ParseAction parses a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionStart, ActionComplete, ActionUncomplete, ActionReopen:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

var actionSources = map[Action][]model.JobStatus{
	ActionStart: {
		model.JobStatusPending,
		model.JobStatusScheduled,
		model.JobStatusBooked,
		model.JobStatusPromised,
		model.JobStatusQualityCheck,
	},
	ActionComplete: {
		model.JobStatusPending,
		model.JobStatusScheduled,
		model.JobStatusBooked,
		model.JobStatusPromised,
		model.JobStatusInProgress,
		model.JobStatusQualityCheck,
	},
	ActionUncomplete: {model.JobStatusCompleted},
	ActionReopen:     {model.JobStatusCompleted},
}

// TransitionTarget computes the stored status action should move job to.
// It only computes the target; applying it is the caller's job.
func (c *Calendar) TransitionTarget(action Action, job *model.Job, now time.Time) (model.JobStatus, error) {
	sources, ok := actionSources[action]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, string(action))
	}
	if !slices.Contains(sources, job.Status) {
		return "", fmt.Errorf("%w: %s from %s", ErrTransitionNotAllowed, action, job.Status)
	}

	switch action {
	case ActionStart:
		return model.JobStatusInProgress, nil
	case ActionComplete:
		return model.JobStatusCompleted, nil
	case ActionUncomplete:
		return c.calendarOrDefault().UncompleteTargetStatus(job, now), nil
	default:
		return model.JobStatusQualityCheck, nil
	}
}
