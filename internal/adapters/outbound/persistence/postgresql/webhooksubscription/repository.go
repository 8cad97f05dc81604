package webhooksubscription

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"taskflow/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

const selectColumns = `
  id,
  owner_user_id,
  url,
  secret,
  array_to_string(event_types, ','),
  active,
  created_at,
  updated_at
`

type Repository struct {
	db *sql.DB
}

var _ portsout.WebhookSubscriptionRepository = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, subscription entities.WebhookSubscription) *apperrors.AppError {
	const query = `
INSERT INTO app.webhook_subscriptions (
  id, owner_user_id, url, secret, event_types, active, created_at, updated_at
)
VALUES ($1, $2, $3, $4, string_to_array($5, ','), $6, $7, $8)
`
	_, err := r.db.ExecContext(
		ctx,
		query,
		subscription.ID,
		subscription.OwnerUserID,
		subscription.URL,
		subscription.Secret,
		shared.JoinTextArray(valueobjects.EventTypeStrings(subscription.EventTypes)),
		subscription.Active,
		subscription.CreatedAt.UTC(),
		subscription.UpdatedAt.UTC(),
	)
	if err != nil {
		return apperrors.NewInternal(
			"webhook_subscription_insert_failed",
			"failed to persist webhook subscription",
			map[string]any{"error": err.Error(), "subscription_id": subscription.ID},
		)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (entities.WebhookSubscription, bool, *apperrors.AppError) {
	if _, err := uuid.Parse(id); err != nil {
		return entities.WebhookSubscription{}, false, nil
	}
	query := `SELECT` + selectColumns + `FROM app.webhook_subscriptions WHERE id = $1`

	subscription, err := scanSubscription(r.db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return entities.WebhookSubscription{}, false, nil
	}
	if err != nil {
		return entities.WebhookSubscription{}, false, apperrors.NewInternal(
			"webhook_subscription_query_failed",
			"failed to query webhook subscription",
			map[string]any{"error": err.Error(), "subscription_id": id},
		)
	}
	return subscription, true, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerUserID string) ([]entities.WebhookSubscription, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `
FROM app.webhook_subscriptions
WHERE owner_user_id = $1
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, ownerUserID)
}

func (r *Repository) ListActiveByEventType(
	ctx context.Context,
	eventType valueobjects.EventType,
) ([]entities.WebhookSubscription, *apperrors.AppError) {
	query := `SELECT` + selectColumns + `
FROM app.webhook_subscriptions
WHERE active
  AND event_types @> ARRAY[$1::text]
ORDER BY created_at ASC, id ASC`
	return r.list(ctx, query, eventType.String())
}

func (r *Repository) UpdateEventTypes(
	ctx context.Context,
	id string,
	eventTypes []valueobjects.EventType,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_subscriptions
SET event_types = string_to_array($2, ','),
    updated_at = $3
WHERE id = $1
  AND active
`
	return r.exec(
		ctx,
		query,
		id,
		shared.JoinTextArray(valueobjects.EventTypeStrings(eventTypes)),
		updatedAt.UTC(),
	)
}

func (r *Repository) Deactivate(ctx context.Context, id string, updatedAt time.Time) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_subscriptions
SET active = FALSE,
    updated_at = $2
WHERE id = $1
  AND active
`
	return r.exec(ctx, query, id, updatedAt.UTC())
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]entities.WebhookSubscription, *apperrors.AppError) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternal(
			"webhook_subscription_query_failed",
			"failed to list webhook subscriptions",
			map[string]any{"error": err.Error()},
		)
	}
	defer rows.Close()

	subscriptions := []entities.WebhookSubscription{}
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, apperrors.NewInternal(
				"webhook_subscription_query_failed",
				"failed to parse webhook subscription",
				map[string]any{"error": err.Error()},
			)
		}
		subscriptions = append(subscriptions, subscription)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal(
			"webhook_subscription_query_failed",
			"failed while iterating webhook subscriptions",
			map[string]any{"error": err.Error()},
		)
	}
	return subscriptions, nil
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (bool, *apperrors.AppError) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternal(
			"webhook_subscription_update_failed",
			"failed to update webhook subscription",
			map[string]any{"error": err.Error()},
		)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternal(
			"webhook_subscription_update_failed",
			"failed to verify webhook subscription update",
			map[string]any{"error": err.Error()},
		)
	}
	return rowsAffected == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (entities.WebhookSubscription, error) {
	var (
		subscription entities.WebhookSubscription
		eventTypes   string
	)
	if err := row.Scan(
		&subscription.ID,
		&subscription.OwnerUserID,
		&subscription.URL,
		&subscription.Secret,
		&eventTypes,
		&subscription.Active,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	); err != nil {
		return entities.WebhookSubscription{}, err
	}

	for _, raw := range shared.SplitTextArray(eventTypes) {
		subscription.EventTypes = append(subscription.EventTypes, valueobjects.EventType(raw))
	}
	subscription.CreatedAt = subscription.CreatedAt.UTC()
	subscription.UpdatedAt = subscription.UpdatedAt.UTC()
	return subscription, nil
}
