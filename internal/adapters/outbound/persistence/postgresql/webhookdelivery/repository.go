package webhookdelivery

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

var _ portsout.WebhookDeliveryRepository = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Enqueue inserts the batch in one transaction; a replayed (event, subscription)
// pair is ignored.
func (r *Repository) Enqueue(ctx context.Context, deliveries []dto.NewWebhookDelivery) *apperrors.AppError {
	if len(deliveries) == 0 {
		return nil
	}

	const query = `
INSERT INTO app.webhook_deliveries (
  id,
  event_id,
  event_type,
  subscription_id,
  destination_url,
  secret,
  payload,
  status,
  attempts,
  max_attempts,
  next_attempt_at,
  created_at,
  updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', 0, $8, $9, $10, $10)
ON CONFLICT (event_id, subscription_id) DO NOTHING
`

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperrors.NewInternal(
			"webhook_delivery_tx_begin_failed",
			"failed to start webhook delivery transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, delivery := range deliveries {
		if _, err := tx.ExecContext(
			ctx,
			query,
			delivery.ID,
			delivery.EventID,
			delivery.EventType,
			delivery.SubscriptionID,
			delivery.DestinationURL,
			delivery.Secret,
			delivery.Payload,
			delivery.MaxAttempts,
			delivery.NextAttemptAt.UTC(),
			delivery.CreatedAt.UTC(),
		); err != nil {
			return apperrors.NewInternal(
				"webhook_delivery_insert_failed",
				"failed to enqueue webhook delivery",
				map[string]any{"error": err.Error(), "event_id": delivery.EventID},
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternal(
			"webhook_delivery_tx_commit_failed",
			"failed to commit webhook delivery transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed = true
	return nil
}

func (r *Repository) ClaimDue(
	ctx context.Context,
	now time.Time,
	limit int,
	leaseOwner string,
	leaseUntil time.Time,
) ([]dto.ClaimedWebhookDelivery, *apperrors.AppError) {
	const query = `
WITH candidates AS (
  SELECT id
  FROM app.webhook_deliveries
  WHERE status = 'pending'
    AND next_attempt_at <= $1
    AND (lease_until IS NULL OR lease_until <= $1)
  ORDER BY next_attempt_at ASC, created_at ASC, id ASC
  LIMIT $2
  FOR UPDATE SKIP LOCKED
)
UPDATE app.webhook_deliveries AS d
SET
  lease_owner = $3,
  lease_until = $4,
  updated_at = $1
FROM candidates
WHERE d.id = candidates.id
RETURNING
  d.id,
  d.event_id,
  d.event_type,
  d.subscription_id,
  d.destination_url,
  d.secret,
  d.payload,
  d.attempts,
  d.max_attempts
`

	rows, err := r.db.QueryContext(
		ctx,
		query,
		now.UTC(),
		limit,
		strings.TrimSpace(leaseOwner),
		leaseUntil.UTC(),
	)
	if err != nil {
		return nil, apperrors.NewInternal(
			"webhook_delivery_query_failed",
			"failed to claim webhook deliveries",
			map[string]any{"error": err.Error()},
		)
	}
	defer rows.Close()

	items := make([]dto.ClaimedWebhookDelivery, 0, limit)
	for rows.Next() {
		item := dto.ClaimedWebhookDelivery{}
		if err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.EventType,
			&item.SubscriptionID,
			&item.DestinationURL,
			&item.Secret,
			&item.Payload,
			&item.Attempts,
			&item.MaxAttempts,
		); err != nil {
			return nil, apperrors.NewInternal(
				"webhook_delivery_query_failed",
				"failed to parse claimed webhook delivery",
				map[string]any{"error": err.Error()},
			)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal(
			"webhook_delivery_query_failed",
			"failed while iterating claimed webhook deliveries",
			map[string]any{"error": err.Error()},
		)
	}
	return items, nil
}

func (r *Repository) MarkDelivered(
	ctx context.Context,
	id string,
	leaseOwner string,
	attempts int,
	statusCode int,
	deliveredAt time.Time,
) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_deliveries
SET
  status = 'delivered',
  attempts = $3,
  last_status_code = $4,
  last_error = NULL,
  delivered_at = $5,
  lease_owner = NULL,
  lease_until = NULL,
  updated_at = $5
WHERE id = $1
  AND status = 'pending'
  AND (lease_owner IS NULL OR lease_owner = $2)
`
	return execRowsAffected(
		ctx,
		r.db,
		query,
		id,
		strings.TrimSpace(leaseOwner),
		attempts,
		statusCode,
		deliveredAt.UTC(),
	)
}

func (r *Repository) MarkRetry(
	ctx context.Context,
	id string,
	leaseOwner string,
	attempts int,
	nextAttemptAt time.Time,
	lastError string,
	statusCode int,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_deliveries
SET
  attempts = $3,
  next_attempt_at = $4,
  last_error = $5,
  last_status_code = $6,
  lease_owner = NULL,
  lease_until = NULL,
  updated_at = $7
WHERE id = $1
  AND status = 'pending'
  AND (lease_owner IS NULL OR lease_owner = $2)
`
	return execRowsAffected(
		ctx,
		r.db,
		query,
		id,
		strings.TrimSpace(leaseOwner),
		attempts,
		nextAttemptAt.UTC(),
		strings.TrimSpace(lastError),
		nullableStatusCode(statusCode),
		updatedAt.UTC(),
	)
}

func (r *Repository) MarkFailed(
	ctx context.Context,
	id string,
	leaseOwner string,
	attempts int,
	lastError string,
	statusCode int,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.webhook_deliveries
SET
  status = 'failed',
  attempts = $3,
  last_error = $4,
  last_status_code = $5,
  lease_owner = NULL,
  lease_until = NULL,
  updated_at = $6
WHERE id = $1
  AND status = 'pending'
  AND (lease_owner IS NULL OR lease_owner = $2)
`
	return execRowsAffected(
		ctx,
		r.db,
		query,
		id,
		strings.TrimSpace(leaseOwner),
		attempts,
		strings.TrimSpace(lastError),
		nullableStatusCode(statusCode),
		updatedAt.UTC(),
	)
}

// RequeueFailed resets a failed delivery to pending with its attempt count cleared.
func (r *Repository) RequeueFailed(
	ctx context.Context,
	subscriptionID string,
	deliveryID string,
	now time.Time,
) (dto.WebhookDeliveryMutationResult, *apperrors.AppError) {
	if _, err := uuid.Parse(deliveryID); err != nil {
		return dto.WebhookDeliveryMutationResult{}, nil
	}

	const query = `
WITH target AS (
  SELECT id, status
  FROM app.webhook_deliveries
  WHERE id = $1
    AND subscription_id = $2
  FOR UPDATE
),
updated AS (
  UPDATE app.webhook_deliveries AS d
  SET
    status = 'pending',
    attempts = 0,
    next_attempt_at = $3,
    last_error = NULL,
    lease_owner = NULL,
    lease_until = NULL,
    updated_at = $3
  FROM target
  WHERE d.id = target.id
    AND target.status = 'failed'
  RETURNING d.id
)
SELECT
  target.status,
  EXISTS (SELECT 1 FROM updated)
FROM target
`

	result := dto.WebhookDeliveryMutationResult{}
	err := r.db.QueryRowContext(ctx, query, deliveryID, subscriptionID, now.UTC()).Scan(
		&result.CurrentStatus,
		&result.Updated,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return dto.WebhookDeliveryMutationResult{}, nil
	}
	if err != nil {
		return dto.WebhookDeliveryMutationResult{}, apperrors.NewInternal(
			"webhook_delivery_update_failed",
			"failed to requeue webhook delivery",
			map[string]any{"error": err.Error(), "delivery_id": deliveryID},
		)
	}

	result.Found = true
	if result.Updated {
		result.CurrentStatus = valueobjects.DeliveryStatusPending.String()
	}
	return result, nil
}

func nullableStatusCode(statusCode int) sql.NullInt64 {
	if statusCode <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(statusCode), Valid: true}
}

func execRowsAffected(
	ctx context.Context,
	db *sql.DB,
	query string,
	args ...any,
) (bool, *apperrors.AppError) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternal(
			"webhook_delivery_update_failed",
			"failed to update webhook delivery",
			map[string]any{"error": err.Error()},
		)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternal(
			"webhook_delivery_update_failed",
			"failed to verify webhook delivery update",
			map[string]any{"error": err.Error()},
		)
	}
	return rowsAffected == 1, nil
}
