package controllers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type WebhookDeliveriesController struct {
	overviewUseCase portsin.GetWebhookDeliveryOverviewUseCase
	listUseCase     portsin.ListWebhookDeliveriesUseCase
	requeueUseCase  portsin.RequeueWebhookDeliveryUseCase
	logger          *log.Logger
}

func NewWebhookDeliveriesController(
	overviewUseCase portsin.GetWebhookDeliveryOverviewUseCase,
	listUseCase portsin.ListWebhookDeliveriesUseCase,
	requeueUseCase portsin.RequeueWebhookDeliveryUseCase,
	logger *log.Logger,
) *WebhookDeliveriesController {
	return &WebhookDeliveriesController{
		overviewUseCase: overviewUseCase,
		listUseCase:     listUseCase,
		requeueUseCase:  requeueUseCase,
		logger:          logger,
	}
}

func (c *WebhookDeliveriesController) GetOverview(w http.ResponseWriter, r *http.Request) {
	if c.overviewUseCase == nil {
		writeAppError(w, apperrors.NewInternal(
			"webhook_delivery_overview_use_case_missing",
			"webhook delivery overview use case is required",
			nil,
		))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	output, appErr := c.overviewUseCase.Execute(r.Context(), dto.GetWebhookDeliveryOverviewQuery{
		OwnerUserID: principal.UserID,
		Now:         time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r.Method, "/v1/webhook-deliveries/overview", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *WebhookDeliveriesController) List(w http.ResponseWriter, r *http.Request) {
	if c.listUseCase == nil {
		writeAppError(w, apperrors.NewInternal(
			"webhook_delivery_list_use_case_missing",
			"webhook delivery list use case is required",
			nil,
		))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	limit := 0
	rawLimit := strings.TrimSpace(r.URL.Query().Get("limit"))
	if rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil {
			writeAppError(w, apperrors.NewValidation(
				"invalid_request",
				"limit must be an integer",
				map[string]any{"field": "limit"},
			))
			return
		}
		limit = parsed
	}

	output, appErr := c.listUseCase.Execute(r.Context(), dto.ListWebhookDeliveriesQuery{
		OwnerUserID:    principal.UserID,
		SubscriptionID: strings.TrimSpace(r.PathValue("id")),
		Status:         r.URL.Query().Get("status"),
		Limit:          limit,
	})
	if appErr != nil {
		if !appErr.Is(apperrors.TypeValidation) && !appErr.Is(apperrors.TypeNotFound) {
			logRequestError(c.logger, r.Method, "/v1/webhooks/{id}/deliveries", appErr)
		}
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *WebhookDeliveriesController) Requeue(w http.ResponseWriter, r *http.Request) {
	if c.requeueUseCase == nil {
		writeAppError(w, apperrors.NewInternal(
			"webhook_delivery_requeue_use_case_missing",
			"webhook delivery requeue use case is required",
			nil,
		))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	output, appErr := c.requeueUseCase.Execute(r.Context(), dto.RequeueWebhookDeliveryCommand{
		OwnerUserID:    principal.UserID,
		SubscriptionID: strings.TrimSpace(r.PathValue("id")),
		DeliveryID:     strings.TrimSpace(r.PathValue("delivery_id")),
		Now:            time.Now().UTC(),
	})
	if appErr != nil {
		logRequestError(c.logger, r.Method, "/v1/webhooks/{id}/deliveries/{delivery_id}/requeue", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
