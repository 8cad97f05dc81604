package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type ListWebhookSubscriptionsUseCase interface {
	Execute(
		ctx context.Context,
		query dto.ListWebhookSubscriptionsQuery,
	) (dto.ListWebhookSubscriptionsOutput, *apperrors.AppError)
}
