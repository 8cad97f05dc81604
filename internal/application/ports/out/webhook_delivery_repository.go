package out

import (
	"context"
	"time"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

// WebhookDeliveryRepository is the delayed delivery queue. Claims lease rows to one
// worker; every Mark* call is conditional on that lease and on status pending.
type WebhookDeliveryRepository interface {
	Enqueue(ctx context.Context, deliveries []dto.NewWebhookDelivery) *apperrors.AppError
	ClaimDue(
		ctx context.Context,
		now time.Time,
		limit int,
		leaseOwner string,
		leaseUntil time.Time,
	) ([]dto.ClaimedWebhookDelivery, *apperrors.AppError)
	MarkDelivered(
		ctx context.Context,
		id string,
		leaseOwner string,
		attempts int,
		statusCode int,
		deliveredAt time.Time,
	) (bool, *apperrors.AppError)
	MarkRetry(
		ctx context.Context,
		id string,
		leaseOwner string,
		attempts int,
		nextAttemptAt time.Time,
		lastError string,
		statusCode int,
		updatedAt time.Time,
	) (bool, *apperrors.AppError)
	MarkFailed(
		ctx context.Context,
		id string,
		leaseOwner string,
		attempts int,
		lastError string,
		statusCode int,
		updatedAt time.Time,
	) (bool, *apperrors.AppError)
	RequeueFailed(
		ctx context.Context,
		subscriptionID string,
		deliveryID string,
		now time.Time,
	) (dto.WebhookDeliveryMutationResult, *apperrors.AppError)
}
