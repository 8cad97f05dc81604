package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type DispatchWebhookDeliveriesUseCase interface {
	Execute(
		ctx context.Context,
		command dto.DispatchWebhookDeliveriesCommand,
	) (dto.DispatchWebhookDeliveriesOutput, *apperrors.AppError)
}
