package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophlocker/internal/common"
)

const msgInternal = "Internal server error"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// fail renders err with its mapped status. notFound is the message used for
// common.ErrNotFound; callers that cannot see that error pass "". Unmapped
// errors are logged and rendered opaquely.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var (
		verr   *common.ValidationError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, common.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, "Invalid file type")
	case errors.Is(err, common.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "Invalid file name")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, common.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email already registered")
	case errors.As(err, &tooBig):
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	default:
		s.logger.Error(r.Context(), "request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// nullable renders "" as JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
