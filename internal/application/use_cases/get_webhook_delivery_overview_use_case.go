package use_cases

import (
	"context"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type getWebhookDeliveryOverviewUseCase struct {
	subscriptions portsout.WebhookSubscriptionRepository
	readModel     portsout.WebhookDeliveryReadModel
	clock         Clock
}

func NewGetWebhookDeliveryOverviewUseCase(
	subscriptions portsout.WebhookSubscriptionRepository,
	readModel portsout.WebhookDeliveryReadModel,
	clock Clock,
) portsin.GetWebhookDeliveryOverviewUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &getWebhookDeliveryOverviewUseCase{
		subscriptions: subscriptions,
		readModel:     readModel,
		clock:         clock,
	}
}

func (u *getWebhookDeliveryOverviewUseCase) Execute(
	ctx context.Context,
	query dto.GetWebhookDeliveryOverviewQuery,
) (dto.WebhookDeliveryOverview, *apperrors.AppError) {
	if u.subscriptions == nil {
		return dto.WebhookDeliveryOverview{}, missingSubscriptionRepository()
	}
	if u.readModel == nil {
		return dto.WebhookDeliveryOverview{}, apperrors.NewInternal(
			"webhook_delivery_read_model_missing",
			"webhook delivery read model is required",
			nil,
		)
	}
	owner, appErr := requireOwner(query.OwnerUserID)
	if appErr != nil {
		return dto.WebhookDeliveryOverview{}, appErr
	}

	subscriptions, appErr := u.subscriptions.ListByOwner(ctx, owner)
	if appErr != nil {
		return dto.WebhookDeliveryOverview{}, appErr
	}
	if len(subscriptions) == 0 {
		return dto.WebhookDeliveryOverview{}, nil
	}

	ids := make([]string, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		ids = append(ids, subscription.ID)
	}

	now := query.Now.UTC()
	if query.Now.IsZero() {
		now = u.clock.NowUTC()
	}
	return u.readModel.GetOverview(ctx, ids, now)
}
