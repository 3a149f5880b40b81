package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode response", map[string]interface{}{"path": r.URL.Path})
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidTrade),
		errors.Is(err, domain.ErrInconsistentRecord),
		errors.Is(err, domain.ErrInvalidDirection),
		errors.Is(err, ports.ErrInvalidRegistrationCode):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrUnauthorized), errors.Is(err, ports.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ports.ErrPermissionDenied), errors.Is(err, ports.ErrAccountExpired):
		return http.StatusForbidden
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrUnknownSymbol):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, ports.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ports.ErrMarketDataUnavailable), errors.Is(err, ports.ErrConnectionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and hides their details from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), err, "Request failed", map[string]interface{}{"method": r.Method, "path": r.URL.Path})
		msg = http.StatusText(status)
	}
	s.writeJSON(w, r, status, errorResponse{Error: msg})
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: msg})
}

// decode reads a JSON body into dst and runs struct validation on it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		s.logger.Warn(r.Context(), "Invalid payload", map[string]interface{}{"path": r.URL.Path, "error": err.Error()})
		s.badRequest(w, r, "invalid payload")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.badRequest(w, r, err.Error())
		return false
	}
	return true
}

func (s *Server) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.badRequest(w, r, "invalid id")
		return 0, false
	}
	return id, true
}
