package out

import (
	"context"
	"time"

	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type WebhookSubscriptionRepository interface {
	Create(ctx context.Context, subscription entities.WebhookSubscription) *apperrors.AppError
	FindByID(ctx context.Context, id string) (entities.WebhookSubscription, bool, *apperrors.AppError)
	ListByOwner(ctx context.Context, ownerUserID string) ([]entities.WebhookSubscription, *apperrors.AppError)
	ListActiveByEventType(
		ctx context.Context,
		eventType valueobjects.EventType,
	) ([]entities.WebhookSubscription, *apperrors.AppError)
	UpdateEventTypes(
		ctx context.Context,
		id string,
		eventTypes []valueobjects.EventType,
		updatedAt time.Time,
	) (bool, *apperrors.AppError)
	Deactivate(ctx context.Context, id string, updatedAt time.Time) (bool, *apperrors.AppError)
}
