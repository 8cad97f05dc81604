package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type UpdateWebhookSubscriptionEventsUseCase interface {
	Execute(
		ctx context.Context,
		command dto.UpdateWebhookSubscriptionEventsCommand,
	) (dto.WebhookSubscriptionView, *apperrors.AppError)
}
