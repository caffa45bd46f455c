package httpx

import (
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/dealerops/agenda-api/internal/errors"
	"github.com/dealerops/agenda-api/internal/service"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// readyHandler reports 503 while the snapshot cache is unreachable. The agenda still
// answers from the store in that state, so this is a degraded signal rather than an outage.
func readyHandler(svc *service.AgendaService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc != nil {
			err := svc.Health(r.Context())
			switch {
			case err == nil:
			case apperrors.IsUnavailable(err):
				logger.WarnContext(r.Context(), "readiness check failed", "error", err)
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "cache": err.Error()})
				return
			default:
				writeServiceError(w, r, logger, err)
				return
			}
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
