package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type WebhookSubscriptionsController struct {
	createUseCase       portsin.CreateWebhookSubscriptionUseCase
	listUseCase         portsin.ListWebhookSubscriptionsUseCase
	getUseCase          portsin.GetWebhookSubscriptionUseCase
	updateEventsUseCase portsin.UpdateWebhookSubscriptionEventsUseCase
	deactivateUseCase   portsin.DeactivateWebhookSubscriptionUseCase
	logger              *log.Logger
}

type createWebhookSubscriptionPayload struct {
	URL        string   `json:"url"`
	Secret     string   `json:"secret,omitempty"`
	EventTypes []string `json:"event_types"`
}

type updateWebhookEventsPayload struct {
	EventTypes []string `json:"event_types"`
}

func NewWebhookSubscriptionsController(
	createUseCase portsin.CreateWebhookSubscriptionUseCase,
	listUseCase portsin.ListWebhookSubscriptionsUseCase,
	getUseCase portsin.GetWebhookSubscriptionUseCase,
	updateEventsUseCase portsin.UpdateWebhookSubscriptionEventsUseCase,
	deactivateUseCase portsin.DeactivateWebhookSubscriptionUseCase,
	logger *log.Logger,
) *WebhookSubscriptionsController {
	return &WebhookSubscriptionsController{
		createUseCase:       createUseCase,
		listUseCase:         listUseCase,
		getUseCase:          getUseCase,
		updateEventsUseCase: updateEventsUseCase,
		deactivateUseCase:   deactivateUseCase,
		logger:              logger,
	}
}

func (c *WebhookSubscriptionsController) Create(w http.ResponseWriter, r *http.Request) {
	if c.createUseCase == nil {
		writeAppError(w, missingUseCase("create_webhook_subscription"))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	payload := createWebhookSubscriptionPayload{}
	if appErr := decodeJSONBody(w, r, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.createUseCase.Execute(r.Context(), dto.CreateWebhookSubscriptionCommand{
		OwnerUserID: principal.UserID,
		URL:         payload.URL,
		Secret:      payload.Secret,
		EventTypes:  payload.EventTypes,
		Now:         time.Now().UTC(),
	})
	if appErr != nil {
		c.logFailure(r, "/v1/webhooks", appErr)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Location", "/v1/webhooks/"+output.ID)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, output)
}

func (c *WebhookSubscriptionsController) List(w http.ResponseWriter, r *http.Request) {
	if c.listUseCase == nil {
		writeAppError(w, missingUseCase("list_webhook_subscriptions"))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	output, appErr := c.listUseCase.Execute(r.Context(), dto.ListWebhookSubscriptionsQuery{OwnerUserID: principal.UserID})
	if appErr != nil {
		c.logFailure(r, "/v1/webhooks", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *WebhookSubscriptionsController) Get(w http.ResponseWriter, r *http.Request) {
	if c.getUseCase == nil {
		writeAppError(w, missingUseCase("get_webhook_subscription"))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	output, appErr := c.getUseCase.Execute(r.Context(), dto.GetWebhookSubscriptionQuery{
		OwnerUserID:    principal.UserID,
		SubscriptionID: strings.TrimSpace(r.PathValue("id")),
	})
	if appErr != nil {
		c.logFailure(r, "/v1/webhooks/{id}", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *WebhookSubscriptionsController) UpdateEvents(w http.ResponseWriter, r *http.Request) {
	if c.updateEventsUseCase == nil {
		writeAppError(w, missingUseCase("update_webhook_subscription_events"))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	payload := updateWebhookEventsPayload{}
	if appErr := decodeJSONBody(w, r, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.updateEventsUseCase.Execute(r.Context(), dto.UpdateWebhookSubscriptionEventsCommand{
		OwnerUserID:    principal.UserID,
		SubscriptionID: strings.TrimSpace(r.PathValue("id")),
		EventTypes:     payload.EventTypes,
		Now:            time.Now().UTC(),
	})
	if appErr != nil {
		c.logFailure(r, "/v1/webhooks/{id}/events", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *WebhookSubscriptionsController) Deactivate(w http.ResponseWriter, r *http.Request) {
	if c.deactivateUseCase == nil {
		writeAppError(w, missingUseCase("deactivate_webhook_subscription"))
		return
	}
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	output, appErr := c.deactivateUseCase.Execute(r.Context(), dto.DeactivateWebhookSubscriptionCommand{
		OwnerUserID:    principal.UserID,
		SubscriptionID: strings.TrimSpace(r.PathValue("id")),
		Now:            time.Now().UTC(),
	})
	if appErr != nil {
		c.logFailure(r, "/v1/webhooks/{id}", appErr)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

// logFailure skips client errors; those are answered and not worth a log line.
func (c *WebhookSubscriptionsController) logFailure(r *http.Request, path string, appErr *apperrors.AppError) {
	if appErr.Is(apperrors.TypeValidation) || appErr.Is(apperrors.TypeNotFound) || appErr.Is(apperrors.TypeConflict) {
		return
	}
	logRequestError(c.logger, r.Method, path, appErr)
}

func missingUseCase(name string) *apperrors.AppError {
	return apperrors.NewInternal(
		name+"_use_case_missing",
		strings.ReplaceAll(name, "_", " ")+" use case is required",
		nil,
	)
}
