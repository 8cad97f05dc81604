package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"taskflow/internal/adapters/inbound/http/middleware"
	"taskflow/internal/adapters/inbound/http/respond"
	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const maxJSONBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	respond.JSON(w, status, payload)
}

func writeAppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	respond.AppError(w, appErr)
}

func logRequestError(logger *log.Logger, method string, path string, appErr *apperrors.AppError) {
	if logger == nil || appErr == nil {
		return
	}
	logger.Printf("request error path=%s method=%s code=%s message=%s", path, method, appErr.Code, appErr.Message)
}

// requirePrincipal answers 401 itself when the route was mounted without admission.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (dto.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || principal.UserID == "" {
		writeAppError(w, apperrors.NewUnauthorized(
			"unauthorized",
			"a bearer token is required",
			nil,
		))
		return dto.Principal{}, false
	}
	return principal, true
}

// decodeJSONBody requires a single JSON object with only known fields. An empty body
// is accepted when allowEmpty is set.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, target any, allowEmpty bool) *apperrors.AppError {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return apperrors.NewValidation("invalid_request", "request body is required", nil)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return apperrors.NewValidation("invalid_request", "request body is required", nil)
		}
		return apperrors.NewValidation(
			"invalid_request",
			"request body must be valid JSON",
			map[string]any{"error": err.Error()},
		)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.NewValidation(
			"invalid_request",
			"request body must contain a single JSON object",
			nil,
		)
	}
	return nil
}
