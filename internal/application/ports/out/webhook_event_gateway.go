package out

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type WebhookEventGateway interface {
	SendWebhookEvent(ctx context.Context, input dto.SendWebhookInput) (dto.SendWebhookOutput, *apperrors.AppError)
}
