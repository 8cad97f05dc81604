package controllers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const maxResourceBodyBytes = 10 << 20

type ResourceController struct {
	useCase portsin.RouteResourceRequestUseCase
	logger  *log.Logger
}

func NewResourceController(useCase portsin.RouteResourceRequestUseCase, logger *log.Logger) *ResourceController {
	return &ResourceController{
		useCase: useCase,
		logger:  logger,
	}
}

// Forward relays an authenticated resource request and copies the handler's status,
// content type and body back verbatim.
func (c *ResourceController) Forward(w http.ResponseWriter, r *http.Request) {
	if c.useCase == nil {
		writeAppError(w, apperrors.NewInternal(
			"route_resource_use_case_missing",
			"route resource use case is required",
			nil,
		))
		return
	}

	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	body, appErr := readResourceBody(w, r)
	if appErr != nil {
		writeAppError(w, appErr)
		return
	}

	result, appErr := c.useCase.Execute(r.Context(), dto.RouteResourceCommand{
		Request: dto.ResourceRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawQuery:    r.URL.RawQuery,
			UserID:      principal.UserID,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		},
		EventType: ResourceEventFor(r.Method, r.URL.Path).String(),
	})
	if appErr != nil {
		logRequestError(c.logger, r.Method, r.URL.Path, appErr)
		writeAppError(w, appErr)
		return
	}

	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	w.WriteHeader(result.StatusCode)
	if len(result.Body) == 0 {
		return
	}
	if _, err := w.Write(result.Body); err != nil && c.logger != nil {
		c.logger.Printf("response write error path=%s method=%s error=%v", r.URL.Path, r.Method, err)
	}
}

func readResourceBody(w http.ResponseWriter, r *http.Request) ([]byte, *apperrors.AppError) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxResourceBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewValidation(
				"request_too_large",
				"request body exceeds the allowed size",
				map[string]any{"limit_bytes": tooLarge.Limit},
			)
		}
		return nil, apperrors.NewValidation(
			"invalid_request",
			"request body could not be read",
			map[string]any{"error": err.Error()},
		)
	}
	return body, nil
}
