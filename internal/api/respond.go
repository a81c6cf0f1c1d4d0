package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"subforge/internal/logging"
	"subforge/internal/services"
	"subforge/internal/workbench"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps an error marker to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRange), errors.Is(err, services.ErrParseFailure):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrJobBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrResourceUnavailable):
		return http.StatusPreconditionFailed
	case errors.Is(err, services.ErrConfiguration), errors.Is(err, workbench.ErrStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrExternalFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "http_request_failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Hint: services.Hint(err)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// rowParam converts the 1-based {index} path parameter to a 0-based row.
func rowParam(r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 1 {
		return 0, false
	}
	return index - 1, true
}
