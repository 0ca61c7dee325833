package chatapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/runner"
	"github.com/Overwatch47/SpectraScout/session"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errBadRequest marks client mistakes detected by the handlers.
var errBadRequest = errors.New("bad request")

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, runner.ErrEmptyMessage):
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: err.Error()})
	case errors.Is(err, session.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "session not found"})
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "An internal error occurred"})
	}
}
