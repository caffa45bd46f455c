package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealerops/agenda-api/internal/domain/agenda"
	"github.com/dealerops/agenda-api/internal/domain/model"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
)

// AgendaQuery is an agenda request as it arrives from query parameters or command-line
// flags, before validation.
type AgendaQuery struct {
	Range string
	Start string
	End   string
	// Assignee is "", "all", "any" or "me". CoordinatorID is only read for "me".
	Assignee      string
	CoordinatorID string
	Location      string
	Query         string
	Statuses      []string
	Now           string
}

// ParseAgendaQuery validates q and converts it into an AgendaRequest, reading dates in
// cal's reference zone. Failures are validation errors carrying the offending field name.
//
// Timestamps (start, end, now) name exact instants. A bare date is midnight in the
// reference zone, and a date-only end includes its whole day.
func ParseAgendaQuery(cal *agenda.Calendar, q AgendaQuery) (AgendaRequest, error) {
	if cal == nil {
		cal = agenda.DefaultCalendar()
	}
	var req AgendaRequest

	name, err := agenda.ParseRangeName(q.Range)
	if err != nil {
		return req, apperrors.ValidationField("range", err.Error())
	}
	req.Range.Name = name
	if name == agenda.RangeCustom {
		if req.Range.Start, err = parseBound(cal, q.Start, false); err != nil {
			return req, apperrors.ValidationField("start", err.Error())
		}
		if req.Range.End, err = parseBound(cal, q.End, true); err != nil {
			return req, apperrors.ValidationField("end", err.Error())
		}
	}

	switch strings.ToLower(strings.TrimSpace(q.Assignee)) {
	case "", "all", "any":
	case "me":
		req.Assignee = agenda.AssigneeFilter{Me: true, ID: strings.TrimSpace(q.CoordinatorID)}
	default:
		return req, apperrors.ValidationField("assignee", fmt.Sprintf("invalid assignee %q (valid: me, all)", q.Assignee))
	}

	if req.Location, err = model.ParseLocation(q.Location); err != nil {
		return req, apperrors.ValidationField("location", err.Error())
	}
	req.Query = strings.TrimSpace(q.Query)

	for _, v := range q.Statuses {
		var st model.JobStatus
		if err := st.UnmarshalText([]byte(v)); err != nil {
			return req, apperrors.ValidationField("status", err.Error())
		}
		req.Statuses = append(req.Statuses, st)
	}

	if strings.TrimSpace(q.Now) != "" {
		m, err := cal.ParseInstant(q.Now)
		if err != nil {
			return req, apperrors.ValidationField("now", err.Error())
		}
		req.Now = m.At
	}
	return req, nil
}

// parseBound reads a custom range bound. An empty value is not an error; the engine treats
// an incomplete custom range as unbounded.
func parseBound(cal *agenda.Calendar, value string, end bool) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	m, err := cal.ParseInstant(value)
	if err != nil {
		return time.Time{}, err
	}
	if end && m.DateOnly {
		return m.At.AddDate(0, 0, 1), nil
	}
	return m.At, nil
}
