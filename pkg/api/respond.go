package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/tessera/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// respondJSON sends a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// respondError sends a structured JSON error. The status is derived from
// the error code.
func respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	respondJSON(w, status, errorResponse{
		Error:     http.StatusText(status),
		Status:    status,
		Code:      string(code),
		Message:   errors.UserMessage(err),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidKey, errors.ErrCodeInvalidGrid, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCannotChange:
		return http.StatusConflict
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
