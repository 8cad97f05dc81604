package use_cases

import (
	"context"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type deactivateWebhookSubscriptionUseCase struct {
	repository portsout.WebhookSubscriptionRepository
	clock      Clock
}

func NewDeactivateWebhookSubscriptionUseCase(
	repository portsout.WebhookSubscriptionRepository,
	clock Clock,
) portsin.DeactivateWebhookSubscriptionUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &deactivateWebhookSubscriptionUseCase{repository: repository, clock: clock}
}

// Execute is idempotent: deactivating an inactive subscription returns its current view.
func (u *deactivateWebhookSubscriptionUseCase) Execute(
	ctx context.Context,
	command dto.DeactivateWebhookSubscriptionCommand,
) (dto.WebhookSubscriptionView, *apperrors.AppError) {
	if u.repository == nil {
		return dto.WebhookSubscriptionView{}, missingSubscriptionRepository()
	}

	subscription, appErr := loadOwnedSubscription(ctx, u.repository, command.OwnerUserID, command.SubscriptionID)
	if appErr != nil {
		return dto.WebhookSubscriptionView{}, appErr
	}
	if !subscription.Active {
		return toWebhookSubscriptionView(subscription), nil
	}

	now := command.Now.UTC()
	if command.Now.IsZero() {
		now = u.clock.NowUTC()
	}

	updated, appErr := u.repository.Deactivate(ctx, subscription.ID, now)
	if appErr != nil {
		return dto.WebhookSubscriptionView{}, appErr
	}
	subscription.Active = false
	if updated {
		subscription.UpdatedAt = now
	}
	return toWebhookSubscriptionView(subscription), nil
}
