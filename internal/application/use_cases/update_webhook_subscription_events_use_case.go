package use_cases

import (
	"context"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type updateWebhookSubscriptionEventsUseCase struct {
	repository portsout.WebhookSubscriptionRepository
	clock      Clock
}

func NewUpdateWebhookSubscriptionEventsUseCase(
	repository portsout.WebhookSubscriptionRepository,
	clock Clock,
) portsin.UpdateWebhookSubscriptionEventsUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &updateWebhookSubscriptionEventsUseCase{repository: repository, clock: clock}
}

func (u *updateWebhookSubscriptionEventsUseCase) Execute(
	ctx context.Context,
	command dto.UpdateWebhookSubscriptionEventsCommand,
) (dto.WebhookSubscriptionView, *apperrors.AppError) {
	if u.repository == nil {
		return dto.WebhookSubscriptionView{}, missingSubscriptionRepository()
	}

	subscription, appErr := loadOwnedSubscription(ctx, u.repository, command.OwnerUserID, command.SubscriptionID)
	if appErr != nil {
		return dto.WebhookSubscriptionView{}, appErr
	}
	if !subscription.Active {
		return dto.WebhookSubscriptionView{}, apperrors.NewConflict(
			"webhook_subscription_inactive",
			"webhook subscription is deactivated",
			map[string]any{"subscription_id": subscription.ID},
		)
	}

	eventTypes, appErr := valueobjects.NormalizeEventTypes(command.EventTypes)
	if appErr != nil {
		return dto.WebhookSubscriptionView{}, appErr
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	updated, appErr := u.repository.UpdateEventTypes(ctx, subscription.ID, eventTypes, now)
	if appErr != nil {
		return dto.WebhookSubscriptionView{}, appErr
	}
	if !updated {
		return dto.WebhookSubscriptionView{}, apperrors.NewConflict(
			"webhook_subscription_inactive",
			"webhook subscription is deactivated",
			map[string]any{"subscription_id": subscription.ID},
		)
	}

	subscription.EventTypes = eventTypes
	subscription.UpdatedAt = now
	return toWebhookSubscriptionView(subscription), nil
}
