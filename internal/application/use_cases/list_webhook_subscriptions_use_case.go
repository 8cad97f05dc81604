package use_cases

import (
	"context"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type listWebhookSubscriptionsUseCase struct {
	repository portsout.WebhookSubscriptionRepository
}

func NewListWebhookSubscriptionsUseCase(
	repository portsout.WebhookSubscriptionRepository,
) portsin.ListWebhookSubscriptionsUseCase {
	return &listWebhookSubscriptionsUseCase{repository: repository}
}

func (u *listWebhookSubscriptionsUseCase) Execute(
	ctx context.Context,
	query dto.ListWebhookSubscriptionsQuery,
) (dto.ListWebhookSubscriptionsOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.ListWebhookSubscriptionsOutput{}, missingSubscriptionRepository()
	}
	owner, appErr := requireOwner(query.OwnerUserID)
	if appErr != nil {
		return dto.ListWebhookSubscriptionsOutput{}, appErr
	}

	subscriptions, appErr := u.repository.ListByOwner(ctx, owner)
	if appErr != nil {
		return dto.ListWebhookSubscriptionsOutput{}, appErr
	}

	views := make([]dto.WebhookSubscriptionView, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		views = append(views, toWebhookSubscriptionView(subscription))
	}
	return dto.ListWebhookSubscriptionsOutput{Subscriptions: views}, nil
}
