package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dealerops/agenda-api/internal/domain/agenda"
	apperrors "github.com/dealerops/agenda-api/internal/errors"
	"github.com/dealerops/agenda-api/internal/service"
)

// JobHandlers serves status actions on jobs.
type JobHandlers struct {
	Svc    *service.JobStatusService
	Logger *slog.Logger
}

// statusActionRequest is the optional body of a status action.
type statusActionRequest struct {
	Reason string         `json:"reason"`
	Extra  map[string]any `json:"extra"`
}

// Apply handles POST /api/jobs/{id}/{action}.
func (h *JobHandlers) Apply(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeServiceError(w, r, h.Logger, apperrors.ValidationField("id", "job id is required"))
		return
	}
	action, err := agenda.ParseAction(r.PathValue("action"))
	if err != nil {
		writeServiceError(w, r, h.Logger, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid action"))
		return
	}

	var body statusActionRequest
	if !DecodeOptionalJSON(w, r, &body) {
		return
	}
	extra := body.Extra
	if body.Reason != "" {
		if extra == nil {
			extra = map[string]any{}
		}
		extra["reason"] = body.Reason
	}
	if rid := RequestIDFrom(r.Context()); rid != "" {
		if extra == nil {
			extra = map[string]any{}
		}
		extra["request_id"] = rid
	}

	change, err := h.Svc.Apply(r.Context(), id, action, extra)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, change)
}
