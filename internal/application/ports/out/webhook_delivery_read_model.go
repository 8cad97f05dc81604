package out

import (
	"context"
	"time"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type WebhookDeliveryReadModel interface {
	ListBySubscription(
		ctx context.Context,
		subscriptionID string,
		status string,
		limit int,
	) ([]dto.WebhookDeliveryView, *apperrors.AppError)
	GetOverview(
		ctx context.Context,
		subscriptionIDs []string,
		now time.Time,
	) (dto.WebhookDeliveryOverview, *apperrors.AppError)
}
