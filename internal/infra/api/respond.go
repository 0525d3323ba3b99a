package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"job-search-mas/internal/domain"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"detail": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes {"detail": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"detail": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrResumeTooShort),
		errors.Is(err, domain.ErrResumeMissing),
		errors.Is(err, domain.ErrUnsupportedFile),
		errors.Is(err, domain.ErrEmptyFile),
		errors.Is(err, domain.ErrUnknownWorkflow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	Error(w, statusFor(err), err.Error())
}
