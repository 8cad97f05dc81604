package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type ListWebhookDeliveriesUseCase interface {
	Execute(ctx context.Context, query dto.ListWebhookDeliveriesQuery) (dto.ListWebhookDeliveriesOutput, *apperrors.AppError)
}
