package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type GetWebhookDeliveryOverviewUseCase interface {
	Execute(ctx context.Context, query dto.GetWebhookDeliveryOverviewQuery) (dto.WebhookDeliveryOverview, *apperrors.AppError)
}
