package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type WebhookSubscriptionRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]entities.WebhookSubscription
}

var _ portsout.WebhookSubscriptionRepository = (*WebhookSubscriptionRepository)(nil)

func NewWebhookSubscriptionRepository() *WebhookSubscriptionRepository {
	return &WebhookSubscriptionRepository{subscriptions: map[string]entities.WebhookSubscription{}}
}

func (r *WebhookSubscriptionRepository) Create(
	_ context.Context,
	subscription entities.WebhookSubscription,
) *apperrors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subscriptions[subscription.ID]; exists {
		return apperrors.NewConflict(
			"webhook_subscription_conflict",
			"webhook subscription already exists",
			map[string]any{"subscription_id": subscription.ID},
		)
	}
	r.subscriptions[subscription.ID] = cloneSubscription(subscription)
	return nil
}

func (r *WebhookSubscriptionRepository) FindByID(
	_ context.Context,
	id string,
) (entities.WebhookSubscription, bool, *apperrors.AppError) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscription, ok := r.subscriptions[id]
	if !ok {
		return entities.WebhookSubscription{}, false, nil
	}
	return cloneSubscription(subscription), true, nil
}

func (r *WebhookSubscriptionRepository) ListByOwner(
	_ context.Context,
	ownerUserID string,
) ([]entities.WebhookSubscription, *apperrors.AppError) {
	return r.filter(func(subscription entities.WebhookSubscription) bool {
		return subscription.OwnerUserID == ownerUserID
	}), nil
}

func (r *WebhookSubscriptionRepository) ListActiveByEventType(
	_ context.Context,
	eventType valueobjects.EventType,
) ([]entities.WebhookSubscription, *apperrors.AppError) {
	return r.filter(func(subscription entities.WebhookSubscription) bool {
		return subscription.Subscribes(eventType)
	}), nil
}

func (r *WebhookSubscriptionRepository) UpdateEventTypes(
	_ context.Context,
	id string,
	eventTypes []valueobjects.EventType,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subscription, ok := r.subscriptions[id]
	if !ok || !subscription.Active {
		return false, nil
	}
	subscription.EventTypes = append([]valueobjects.EventType(nil), eventTypes...)
	subscription.UpdatedAt = updatedAt.UTC()
	r.subscriptions[id] = subscription
	return true, nil
}

func (r *WebhookSubscriptionRepository) Deactivate(
	_ context.Context,
	id string,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subscription, ok := r.subscriptions[id]
	if !ok || !subscription.Active {
		return false, nil
	}
	subscription.Active = false
	subscription.UpdatedAt = updatedAt.UTC()
	r.subscriptions[id] = subscription
	return true, nil
}

func (r *WebhookSubscriptionRepository) filter(
	match func(entities.WebhookSubscription) bool,
) []entities.WebhookSubscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []entities.WebhookSubscription{}
	for _, subscription := range r.subscriptions {
		if match(subscription) {
			items = append(items, cloneSubscription(subscription))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func cloneSubscription(subscription entities.WebhookSubscription) entities.WebhookSubscription {
	subscription.EventTypes = append([]valueobjects.EventType(nil), subscription.EventTypes...)
	return subscription
}
