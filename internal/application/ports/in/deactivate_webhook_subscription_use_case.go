package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type DeactivateWebhookSubscriptionUseCase interface {
	Execute(
		ctx context.Context,
		command dto.DeactivateWebhookSubscriptionCommand,
	) (dto.WebhookSubscriptionView, *apperrors.AppError)
}
