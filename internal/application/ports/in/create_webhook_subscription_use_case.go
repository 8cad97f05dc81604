package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type CreateWebhookSubscriptionUseCase interface {
	Execute(
		ctx context.Context,
		command dto.CreateWebhookSubscriptionCommand,
	) (dto.CreatedWebhookSubscription, *apperrors.AppError)
}
