// Package respond writes the JSON bodies shared by controllers and middleware.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "taskflow/internal/shared_kernel/errors"
)

type errorResponse struct {
	Error errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// AppError renders appErr as {"error":{...}}. Rate limited errors also carry
// Retry-After when the details provide retry_after_seconds.
func AppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	if appErr == nil {
		appErr = apperrors.NewInternal("internal_error", "internal error", nil)
	}

	status := StatusFor(appErr.Type)
	if status == http.StatusTooManyRequests {
		if retryAfter, ok := appErr.Details["retry_after_seconds"]; ok {
			w.Header().Set("Retry-After", fmt.Sprint(retryAfter))
		}
	}

	JSON(w, status, errorResponse{
		Error: errorEnvelope{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

func StatusFor(t apperrors.Type) int {
	switch t {
	case apperrors.TypeValidation:
		return http.StatusBadRequest
	case apperrors.TypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.TypeForbidden:
		return http.StatusForbidden
	case apperrors.TypeNotFound:
		return http.StatusNotFound
	case apperrors.TypeConflict:
		return http.StatusConflict
	case apperrors.TypeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.TypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
