package httpx

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dealerops/agenda-api/internal/domain/model"
	"github.com/dealerops/agenda-api/internal/export"
	"github.com/dealerops/agenda-api/internal/service"
)

// AgendaHandlers serves agenda queries.
type AgendaHandlers struct {
	Svc *service.AgendaService
	// CoordinatorHeader names the header carrying the caller's coordinator id for assignee=me.
	CoordinatorHeader string
	Logger            *slog.Logger
}

type conflictsResponse struct {
	Range string             `json:"range"`
	Count int                `json:"count"`
	Items []model.AgendaItem `json:"items"`
}

// Agenda handles GET /api/agenda.
func (h *AgendaHandlers) Agenda(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	view, err := h.Svc.Agenda(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// Conflicts handles GET /api/agenda/conflicts.
func (h *AgendaHandlers) Conflicts(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	items, err := h.Svc.Conflicts(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, conflictsResponse{
		Range: string(req.Range.Name),
		Count: len(items),
		Items: items,
	})
}

// Export handles GET /api/agenda/export.xlsx.
func (h *AgendaHandlers) Export(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	view, err := h.Svc.Agenda(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	data, err := export.Workbook(view)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	name := view.Range
	if name == "" {
		name = "all"
	}
	filename := fmt.Sprintf("agenda-%s-%s.xlsx", name, view.GeneratedAt.In(h.Svc.Calendar().Location()).Format("2006-01-02"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		return
	}
}

// parseRequest reads the agenda query parameters:
//
//	range=today|next3days|week|month|custom  start=, end= (custom bounds)
//	assignee=me  coordinator_id=  location=  q=  status= (repeatable or comma-separated)
//	now= (reference time override)
func (h *AgendaHandlers) parseRequest(r *http.Request) (service.AgendaRequest, error) {
	q := r.URL.Query()
	coordinator := strings.TrimSpace(q.Get("coordinator_id"))
	if coordinator == "" && h.CoordinatorHeader != "" {
		coordinator = strings.TrimSpace(r.Header.Get(h.CoordinatorHeader))
	}
	return service.ParseAgendaQuery(h.Svc.Calendar(), service.AgendaQuery{
		Range:         q.Get("range"),
		Start:         q.Get("start"),
		End:           q.Get("end"),
		Assignee:      q.Get("assignee"),
		CoordinatorID: coordinator,
		Location:      q.Get("location"),
		Query:         q.Get("q"),
		Statuses:      queryValues(q, "status"),
		Now:           q.Get("now"),
	})
}
