package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type GetWebhookSubscriptionUseCase interface {
	Execute(ctx context.Context, query dto.GetWebhookSubscriptionQuery) (dto.WebhookSubscriptionView, *apperrors.AppError)
}
