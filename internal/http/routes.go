// Package httpx exposes the agenda engine over HTTP.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/dealerops/agenda-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Agenda *service.AgendaService
	Status *service.JobStatusService
	// CoordinatorHeader names the header that identifies the caller for assignee=me.
	CoordinatorHeader string
	Logger            *slog.Logger // Optional
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if services.Agenda != nil {
		registerAgendaRoutes(mux, &AgendaHandlers{
			Svc:               services.Agenda,
			CoordinatorHeader: services.CoordinatorHeader,
			Logger:            logger,
		})
	}
	if services.Status != nil {
		registerJobRoutes(mux, &JobHandlers{Svc: services.Status, Logger: logger})
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Agenda, logger))

	return mux
}

func registerAgendaRoutes(mux *http.ServeMux, h *AgendaHandlers) {
	mux.HandleFunc("GET /api/agenda", h.Agenda)
	mux.HandleFunc("GET /api/agenda/conflicts", h.Conflicts)
	mux.HandleFunc("GET /api/agenda/export.xlsx", h.Export)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/jobs/{id}/{action}", h.Apply)
}
