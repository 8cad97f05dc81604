package controllers

import (
	"log"
	"net/http"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	valueobjects "taskflow/internal/domain/value_objects"
)

type HealthController struct {
	useCase portsin.GetHealthUseCase
	logger  *log.Logger
}

func NewHealthController(useCase portsin.GetHealthUseCase, logger *log.Logger) *HealthController {
	return &HealthController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *HealthController) GetHealth(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCase.Execute(r.Context(), dto.GetHealthCommand{})
	if appErr != nil {
		logRequestError(c.logger, r.Method, "/healthz", appErr)
		writeAppError(w, appErr)
		return
	}

	status := http.StatusOK
	if !valueobjects.HealthStatus(output.Status).IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, output)
}
