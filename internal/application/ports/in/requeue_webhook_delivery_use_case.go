package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type RequeueWebhookDeliveryUseCase interface {
	Execute(
		ctx context.Context,
		command dto.RequeueWebhookDeliveryCommand,
	) (dto.RequeueWebhookDeliveryOutput, *apperrors.AppError)
}
