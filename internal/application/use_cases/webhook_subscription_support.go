package use_cases

import (
	"context"
	"strings"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const minWebhookSecretLength = 16

func missingSubscriptionRepository() *apperrors.AppError {
	return apperrors.NewInternal(
		"webhook_subscription_repository_missing",
		"webhook subscription repository is required",
		nil,
	)
}

func requireOwner(ownerUserID string) (string, *apperrors.AppError) {
	owner := strings.TrimSpace(ownerUserID)
	if owner == "" {
		return "", apperrors.NewUnauthorized(
			"unauthorized",
			"authenticated principal is required",
			nil,
		)
	}
	return owner, nil
}

// loadOwnedSubscription reports subscriptions of other owners as not found.
func loadOwnedSubscription(
	ctx context.Context,
	repository portsout.WebhookSubscriptionRepository,
	ownerUserID string,
	subscriptionID string,
) (entities.WebhookSubscription, *apperrors.AppError) {
	owner, appErr := requireOwner(ownerUserID)
	if appErr != nil {
		return entities.WebhookSubscription{}, appErr
	}
	id := strings.TrimSpace(subscriptionID)
	if id == "" {
		return entities.WebhookSubscription{}, apperrors.NewValidation(
			"invalid_request",
			"subscription id is required",
			map[string]any{"field": "id"},
		)
	}

	subscription, found, appErr := repository.FindByID(ctx, id)
	if appErr != nil {
		return entities.WebhookSubscription{}, appErr
	}
	if !found || subscription.OwnerUserID != owner {
		return entities.WebhookSubscription{}, apperrors.NewNotFound(
			"webhook_subscription_not_found",
			"webhook subscription was not found",
			map[string]any{"subscription_id": id},
		)
	}
	return subscription, nil
}

func toWebhookSubscriptionView(subscription entities.WebhookSubscription) dto.WebhookSubscriptionView {
	return dto.WebhookSubscriptionView{
		ID:         subscription.ID,
		URL:        subscription.URL,
		EventTypes: valueobjects.EventTypeStrings(subscription.EventTypes),
		Active:     subscription.Active,
		CreatedAt:  subscription.CreatedAt,
		UpdatedAt:  subscription.UpdatedAt,
	}
}
