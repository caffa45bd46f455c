package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/dealerops/agenda-api/internal/errors"
)

// statusForCode maps application error codes to HTTP statuses.
var statusForCode = map[apperrors.ErrorCode]int{ //nolint:gochecknoglobals // read-only lookup table
	apperrors.ErrCodeNotFound:    http.StatusNotFound,
	apperrors.ErrCodeValidation:  http.StatusBadRequest,
	apperrors.ErrCodeConflict:    http.StatusConflict,
	apperrors.ErrCodeUnavailable: http.StatusServiceUnavailable,
	apperrors.ErrCodeTimeout:     http.StatusGatewayTimeout,
	apperrors.ErrCodeCanceled:    499,
}

// writeServiceError writes err with the status implied by its application error code.
// Errors without a code are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := apperrors.GetCode(err)
	if code == "" {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			code = apperrors.ErrCodeTimeout
		case errors.Is(err, context.Canceled):
			code = apperrors.ErrCodeCanceled
		}
	}

	status, ok := statusForCode[code]
	if !ok {
		if logger != nil {
			logger.ErrorContext(r.Context(), "request failed",
				"path", r.URL.Path,
				"request_id", RequestIDFrom(r.Context()),
				"error", err,
			)
		}
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: string(apperrors.ErrCodeInternal),
			Err:     errors.New("internal server error"),
		})
		return
	}

	WriteError(w, ErrorParams{
		Code:    status,
		ErrCode: string(code),
		Err:     err,
		Field:   apperrors.GetField(err),
	})
}

// queryValues returns every value of key, splitting comma-separated entries and dropping blanks.
func queryValues(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for part := range strings.SplitSeq(raw, ",") {
			if v := strings.TrimSpace(part); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
