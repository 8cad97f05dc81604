package use_cases

import (
	"context"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type getWebhookSubscriptionUseCase struct {
	repository portsout.WebhookSubscriptionRepository
}

func NewGetWebhookSubscriptionUseCase(
	repository portsout.WebhookSubscriptionRepository,
) portsin.GetWebhookSubscriptionUseCase {
	return &getWebhookSubscriptionUseCase{repository: repository}
}

func (u *getWebhookSubscriptionUseCase) Execute(
	ctx context.Context,
	query dto.GetWebhookSubscriptionQuery,
) (dto.WebhookSubscriptionView, *apperrors.AppError) {
	if u.repository == nil {
		return dto.WebhookSubscriptionView{}, missingSubscriptionRepository()
	}

	subscription, appErr := loadOwnedSubscription(ctx, u.repository, query.OwnerUserID, query.SubscriptionID)
	if appErr != nil {
		return dto.WebhookSubscriptionView{}, appErr
	}
	return toWebhookSubscriptionView(subscription), nil
}
