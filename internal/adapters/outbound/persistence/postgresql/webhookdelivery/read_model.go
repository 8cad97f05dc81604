package webhookdelivery

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"taskflow/internal/adapters/outbound/persistence/postgresql/shared"
	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type ReadModel struct {
	db *sql.DB
}

var _ portsout.WebhookDeliveryReadModel = (*ReadModel)(nil)

func NewReadModel(db *sql.DB) *ReadModel {
	return &ReadModel{db: db}
}

func (m *ReadModel) ListBySubscription(
	ctx context.Context,
	subscriptionID string,
	status string,
	limit int,
) ([]dto.WebhookDeliveryView, *apperrors.AppError) {
	const query = `
SELECT
  id,
  event_id,
  event_type,
  subscription_id,
  status,
  attempts,
  max_attempts,
  next_attempt_at,
  last_error,
  last_status_code,
  created_at,
  updated_at,
  delivered_at
FROM app.webhook_deliveries
WHERE subscription_id = $1
  AND ($2 = '' OR status = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3
`

	rows, err := m.db.QueryContext(ctx, query, subscriptionID, strings.TrimSpace(status), limit)
	if err != nil {
		return nil, apperrors.NewInternal(
			"webhook_delivery_query_failed",
			"failed to list webhook deliveries",
			map[string]any{"error": err.Error()},
		)
	}
	defer rows.Close()

	items := make([]dto.WebhookDeliveryView, 0, limit)
	for rows.Next() {
		var (
			item           dto.WebhookDeliveryView
			nextAttemptAt  sql.NullTime
			lastError      sql.NullString
			lastStatusCode sql.NullInt64
			deliveredAt    sql.NullTime
		)
		if err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.EventType,
			&item.SubscriptionID,
			&item.Status,
			&item.Attempts,
			&item.MaxAttempts,
			&nextAttemptAt,
			&lastError,
			&lastStatusCode,
			&item.CreatedAt,
			&item.UpdatedAt,
			&deliveredAt,
		); err != nil {
			return nil, apperrors.NewInternal(
				"webhook_delivery_query_failed",
				"failed to parse webhook delivery",
				map[string]any{"error": err.Error()},
			)
		}

		item.CreatedAt = item.CreatedAt.UTC()
		item.UpdatedAt = item.UpdatedAt.UTC()
		if nextAttemptAt.Valid && item.Status == "pending" {
			value := nextAttemptAt.Time.UTC()
			item.NextAttemptAt = &value
		}
		if lastError.Valid {
			value := lastError.String
			item.LastError = &value
		}
		if lastStatusCode.Valid {
			value := int(lastStatusCode.Int64)
			item.LastStatusCode = &value
		}
		if deliveredAt.Valid {
			value := deliveredAt.Time.UTC()
			item.DeliveredAt = &value
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal(
			"webhook_delivery_query_failed",
			"failed while iterating webhook deliveries",
			map[string]any{"error": err.Error()},
		)
	}
	return items, nil
}

func (m *ReadModel) GetOverview(
	ctx context.Context,
	subscriptionIDs []string,
	now time.Time,
) (dto.WebhookDeliveryOverview, *apperrors.AppError) {
	if len(subscriptionIDs) == 0 {
		return dto.WebhookDeliveryOverview{}, nil
	}

	const query = `
SELECT
  COUNT(*) FILTER (WHERE status = 'pending') AS pending_count,
  COUNT(*) FILTER (WHERE status = 'pending' AND next_attempt_at <= $2) AS pending_ready_count,
  COUNT(*) FILTER (WHERE status = 'pending' AND attempts > 0) AS retrying_count,
  COUNT(*) FILTER (WHERE status = 'failed') AS failed_count,
  COUNT(*) FILTER (WHERE status = 'delivered') AS delivered_count,
  MIN(created_at) FILTER (WHERE status = 'pending') AS oldest_pending_created_at
FROM app.webhook_deliveries
WHERE subscription_id = ANY(string_to_array($1, ',')::uuid[])
`

	var (
		overview      dto.WebhookDeliveryOverview
		oldestPending sql.NullTime
	)
	err := m.db.QueryRowContext(ctx, query, shared.JoinTextArray(subscriptionIDs), now.UTC()).Scan(
		&overview.PendingCount,
		&overview.PendingReadyCount,
		&overview.RetryingCount,
		&overview.FailedCount,
		&overview.DeliveredCount,
		&oldestPending,
	)
	if err != nil {
		return dto.WebhookDeliveryOverview{}, apperrors.NewInternal(
			"webhook_delivery_query_failed",
			"failed to query webhook delivery overview",
			map[string]any{"error": err.Error()},
		)
	}

	if oldestPending.Valid {
		createdAt := oldestPending.Time.UTC()
		age := int64(now.UTC().Sub(createdAt).Seconds())
		if age < 0 {
			age = 0
		}
		overview.OldestPendingCreatedAt = &createdAt
		overview.OldestPendingAgeSec = &age
	}
	return overview, nil
}
