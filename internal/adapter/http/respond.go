package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// Error codes returned in the "error" field of a failed response.
const (
	codeInvalidRequest   = "invalid_request"
	codeInvalidFilter    = "invalid_filter"
	codeUnknownColumn    = "unknown_column"
	codeInsufficientData = "insufficient_data"
	codeInternal         = "internal"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON encodes v before writing the status, so a value that cannot be
// encoded becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: codeInternal, Message: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, codeInvalidFilter, err.Error())
	case errors.Is(err, domain.ErrMissingColumn),
		errors.Is(err, domain.ErrUnknownGranularity),
		errors.Is(err, domain.ErrUnknownMetric):
		writeError(w, http.StatusBadRequest, codeUnknownColumn, err.Error())
	case errors.Is(err, domain.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, codeInsufficientData, err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
