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

type requeueWebhookDeliveryUseCase struct {
	subscriptions portsout.WebhookSubscriptionRepository
	deliveries    portsout.WebhookDeliveryRepository
	clock         Clock
}

func NewRequeueWebhookDeliveryUseCase(
	subscriptions portsout.WebhookSubscriptionRepository,
	deliveries portsout.WebhookDeliveryRepository,
	clock Clock,
) portsin.RequeueWebhookDeliveryUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &requeueWebhookDeliveryUseCase{
		subscriptions: subscriptions,
		deliveries:    deliveries,
		clock:         clock,
	}
}

func (u *requeueWebhookDeliveryUseCase) Execute(
	ctx context.Context,
	command dto.RequeueWebhookDeliveryCommand,
) (dto.RequeueWebhookDeliveryOutput, *apperrors.AppError) {
	if u.subscriptions == nil {
		return dto.RequeueWebhookDeliveryOutput{}, missingSubscriptionRepository()
	}
	if u.deliveries == nil {
		return dto.RequeueWebhookDeliveryOutput{}, apperrors.NewInternal(
			"webhook_delivery_repository_missing",
			"webhook delivery repository is required",
			nil,
		)
	}

	subscription, appErr := loadOwnedSubscription(ctx, u.subscriptions, command.OwnerUserID, command.SubscriptionID)
	if appErr != nil {
		return dto.RequeueWebhookDeliveryOutput{}, appErr
	}

	deliveryID := strings.TrimSpace(command.DeliveryID)
	if deliveryID == "" {
		return dto.RequeueWebhookDeliveryOutput{}, apperrors.NewValidation(
			"invalid_request",
			"delivery_id is required",
			map[string]any{"field": "delivery_id"},
		)
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	result, appErr := u.deliveries.RequeueFailed(ctx, subscription.ID, deliveryID, now)
	if appErr != nil {
		return dto.RequeueWebhookDeliveryOutput{}, appErr
	}
	if !result.Found {
		return dto.RequeueWebhookDeliveryOutput{}, apperrors.NewNotFound(
			"webhook_delivery_not_found",
			"webhook delivery was not found",
			map[string]any{"delivery_id": deliveryID},
		)
	}
	if !result.Updated {
		return dto.RequeueWebhookDeliveryOutput{}, apperrors.NewConflict(
			"webhook_delivery_not_requeueable",
			"webhook delivery is not requeueable",
			map[string]any{
				"delivery_id":     deliveryID,
				"delivery_status": result.CurrentStatus,
			},
		)
	}

	return dto.RequeueWebhookDeliveryOutput{
		DeliveryID: deliveryID,
		Status:     valueobjects.DeliveryStatusPending.String(),
		UpdatedAt:  now,
	}, nil
}
