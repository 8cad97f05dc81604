package use_cases

import (
	"context"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const (
	defaultWebhookDeliveryListLimit = 50
	maxWebhookDeliveryListLimit     = 200
)

type listWebhookDeliveriesUseCase struct {
	subscriptions portsout.WebhookSubscriptionRepository
	readModel     portsout.WebhookDeliveryReadModel
}

func NewListWebhookDeliveriesUseCase(
	subscriptions portsout.WebhookSubscriptionRepository,
	readModel portsout.WebhookDeliveryReadModel,
) portsin.ListWebhookDeliveriesUseCase {
	return &listWebhookDeliveriesUseCase{
		subscriptions: subscriptions,
		readModel:     readModel,
	}
}

func (u *listWebhookDeliveriesUseCase) Execute(
	ctx context.Context,
	query dto.ListWebhookDeliveriesQuery,
) (dto.ListWebhookDeliveriesOutput, *apperrors.AppError) {
	if u.subscriptions == nil {
		return dto.ListWebhookDeliveriesOutput{}, missingSubscriptionRepository()
	}
	if u.readModel == nil {
		return dto.ListWebhookDeliveriesOutput{}, apperrors.NewInternal(
			"webhook_delivery_read_model_missing",
			"webhook delivery read model is required",
			nil,
		)
	}

	status := strings.ToLower(strings.TrimSpace(query.Status))
	if status != "" {
		if _, ok := valueobjects.ParseDeliveryStatus(status); !ok {
			return dto.ListWebhookDeliveriesOutput{}, apperrors.NewValidation(
				"invalid_request",
				"status must be pending, delivered or failed",
				map[string]any{"field": "status", "status": query.Status},
			)
		}
	}

	limit := query.Limit
	if limit == 0 {
		limit = defaultWebhookDeliveryListLimit
	}
	if limit < 0 || limit > maxWebhookDeliveryListLimit {
		return dto.ListWebhookDeliveriesOutput{}, apperrors.NewValidation(
			"invalid_request",
			"limit must be between 1 and 200",
			map[string]any{"field": "limit", "limit": query.Limit},
		)
	}

	subscription, appErr := loadOwnedSubscription(ctx, u.subscriptions, query.OwnerUserID, query.SubscriptionID)
	if appErr != nil {
		return dto.ListWebhookDeliveriesOutput{}, appErr
	}

	deliveries, appErr := u.readModel.ListBySubscription(ctx, subscription.ID, status, limit)
	if appErr != nil {
		return dto.ListWebhookDeliveriesOutput{}, appErr
	}
	if deliveries == nil {
		deliveries = []dto.WebhookDeliveryView{}
	}
	return dto.ListWebhookDeliveriesOutput{Deliveries: deliveries}, nil
}
