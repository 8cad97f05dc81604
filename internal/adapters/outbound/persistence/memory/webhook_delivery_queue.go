package memory

import (
	"container/heap"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

// WebhookDeliveryQueue is the delayed delivery queue for single-process runs.
// Pending rows sit in a min-heap on their next eligible time; an entry whose
// version no longer matches its row is stale and dropped on pop.
type WebhookDeliveryQueue struct {
	mu         sync.Mutex
	deliveries map[string]*queuedDelivery
	dedupe     map[string]struct{}
	due        dueHeap
	sequence   uint64
}

type queuedDelivery struct {
	delivery entities.WebhookDelivery
	version  uint64
}

type dueEntry struct {
	id       string
	dueAt    time.Time
	sequence uint64
	version  uint64
}

var (
	_ portsout.WebhookDeliveryRepository = (*WebhookDeliveryQueue)(nil)
	_ portsout.WebhookDeliveryReadModel  = (*WebhookDeliveryQueue)(nil)
)

func NewWebhookDeliveryQueue() *WebhookDeliveryQueue {
	return &WebhookDeliveryQueue{
		deliveries: map[string]*queuedDelivery{},
		dedupe:     map[string]struct{}{},
	}
}

func (q *WebhookDeliveryQueue) Enqueue(_ context.Context, deliveries []dto.NewWebhookDelivery) *apperrors.AppError {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range deliveries {
		key := item.EventID + "|" + item.SubscriptionID
		if _, exists := q.dedupe[key]; exists {
			continue
		}
		if _, exists := q.deliveries[item.ID]; exists {
			return apperrors.NewConflict(
				"webhook_delivery_conflict",
				"webhook delivery already exists",
				map[string]any{"delivery_id": item.ID},
			)
		}

		q.dedupe[key] = struct{}{}
		record := &queuedDelivery{
			delivery: entities.WebhookDelivery{
				ID:             item.ID,
				EventID:        item.EventID,
				EventType:      valueobjects.EventType(item.EventType),
				SubscriptionID: item.SubscriptionID,
				DestinationURL: item.DestinationURL,
				Secret:         item.Secret,
				Payload:        append([]byte(nil), item.Payload...),
				MaxAttempts:    item.MaxAttempts,
				Status:         valueobjects.DeliveryStatusPending,
				NextAttemptAt:  item.NextAttemptAt.UTC(),
				CreatedAt:      item.CreatedAt.UTC(),
				UpdatedAt:      item.CreatedAt.UTC(),
			},
		}
		q.deliveries[item.ID] = record
		q.schedule(record, record.delivery.NextAttemptAt)
	}
	return nil
}

func (q *WebhookDeliveryQueue) ClaimDue(
	_ context.Context,
	now time.Time,
	limit int,
	leaseOwner string,
	leaseUntil time.Time,
) ([]dto.ClaimedWebhookDelivery, *apperrors.AppError) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := []dto.ClaimedWebhookDelivery{}
	for len(items) < limit && q.due.Len() > 0 {
		top := q.due[0]
		if top.dueAt.After(now) {
			break
		}
		heap.Pop(&q.due)

		record, ok := q.deliveries[top.id]
		if !ok || record.version != top.version || !record.delivery.DueAt(now) {
			continue
		}

		owner := strings.TrimSpace(leaseOwner)
		until := leaseUntil.UTC()
		record.delivery.LeaseOwner = owner
		record.delivery.LeaseUntil = &until
		record.delivery.UpdatedAt = now.UTC()
		// Re-schedule at lease expiry so an abandoned claim becomes due again.
		q.schedule(record, until)

		items = append(items, dto.ClaimedWebhookDelivery{
			ID:             record.delivery.ID,
			EventID:        record.delivery.EventID,
			EventType:      record.delivery.EventType.String(),
			SubscriptionID: record.delivery.SubscriptionID,
			DestinationURL: record.delivery.DestinationURL,
			Secret:         record.delivery.Secret,
			Payload:        append([]byte(nil), record.delivery.Payload...),
			Attempts:       record.delivery.Attempts,
			MaxAttempts:    record.delivery.MaxAttempts,
		})
	}
	return items, nil
}

func (q *WebhookDeliveryQueue) MarkDelivered(
	_ context.Context,
	id string,
	leaseOwner string,
	attempts int,
	statusCode int,
	deliveredAt time.Time,
) (bool, *apperrors.AppError) {
	return q.settle(id, leaseOwner, func(delivery *entities.WebhookDelivery) {
		at := deliveredAt.UTC()
		delivery.Status = valueobjects.DeliveryStatusDelivered
		delivery.Attempts = attempts
		delivery.LastStatusCode = statusCode
		delivery.LastError = ""
		delivery.DeliveredAt = &at
		delivery.UpdatedAt = at
	}), nil
}

func (q *WebhookDeliveryQueue) MarkRetry(
	_ context.Context,
	id string,
	leaseOwner string,
	attempts int,
	nextAttemptAt time.Time,
	lastError string,
	statusCode int,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	return q.settle(id, leaseOwner, func(delivery *entities.WebhookDelivery) {
		delivery.Attempts = attempts
		delivery.NextAttemptAt = nextAttemptAt.UTC()
		delivery.LastError = lastError
		delivery.LastStatusCode = statusCode
		delivery.UpdatedAt = updatedAt.UTC()
	}), nil
}

func (q *WebhookDeliveryQueue) MarkFailed(
	_ context.Context,
	id string,
	leaseOwner string,
	attempts int,
	lastError string,
	statusCode int,
	updatedAt time.Time,
) (bool, *apperrors.AppError) {
	return q.settle(id, leaseOwner, func(delivery *entities.WebhookDelivery) {
		delivery.Status = valueobjects.DeliveryStatusFailed
		delivery.Attempts = attempts
		delivery.LastError = lastError
		delivery.LastStatusCode = statusCode
		delivery.UpdatedAt = updatedAt.UTC()
	}), nil
}

func (q *WebhookDeliveryQueue) RequeueFailed(
	_ context.Context,
	subscriptionID string,
	deliveryID string,
	now time.Time,
) (dto.WebhookDeliveryMutationResult, *apperrors.AppError) {
	q.mu.Lock()
	defer q.mu.Unlock()

	record, ok := q.deliveries[deliveryID]
	if !ok || record.delivery.SubscriptionID != subscriptionID {
		return dto.WebhookDeliveryMutationResult{}, nil
	}
	if record.delivery.Status != valueobjects.DeliveryStatusFailed {
		return dto.WebhookDeliveryMutationResult{
			Found:         true,
			CurrentStatus: record.delivery.Status.String(),
		}, nil
	}

	at := now.UTC()
	record.delivery.Status = valueobjects.DeliveryStatusPending
	record.delivery.Attempts = 0
	record.delivery.NextAttemptAt = at
	record.delivery.LastError = ""
	record.delivery.UpdatedAt = at
	q.schedule(record, at)
	return dto.WebhookDeliveryMutationResult{
		Found:         true,
		Updated:       true,
		CurrentStatus: valueobjects.DeliveryStatusPending.String(),
	}, nil
}

func (q *WebhookDeliveryQueue) ListBySubscription(
	_ context.Context,
	subscriptionID string,
	status string,
	limit int,
) ([]dto.WebhookDeliveryView, *apperrors.AppError) {
	q.mu.Lock()
	defer q.mu.Unlock()

	status = strings.TrimSpace(status)
	matches := []entities.WebhookDelivery{}
	for _, record := range q.deliveries {
		if record.delivery.SubscriptionID != subscriptionID {
			continue
		}
		if status != "" && record.delivery.Status.String() != status {
			continue
		}
		matches = append(matches, record.delivery)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	items := make([]dto.WebhookDeliveryView, 0, len(matches))
	for _, delivery := range matches {
		items = append(items, toDeliveryView(delivery))
	}
	return items, nil
}

func (q *WebhookDeliveryQueue) GetOverview(
	_ context.Context,
	subscriptionIDs []string,
	now time.Time,
) (dto.WebhookDeliveryOverview, *apperrors.AppError) {
	q.mu.Lock()
	defer q.mu.Unlock()

	wanted := make(map[string]struct{}, len(subscriptionIDs))
	for _, id := range subscriptionIDs {
		wanted[id] = struct{}{}
	}

	overview := dto.WebhookDeliveryOverview{}
	var oldestPending *time.Time
	for _, record := range q.deliveries {
		delivery := record.delivery
		if _, ok := wanted[delivery.SubscriptionID]; !ok {
			continue
		}
		switch delivery.Status {
		case valueobjects.DeliveryStatusPending:
			overview.PendingCount++
			if !delivery.NextAttemptAt.After(now) {
				overview.PendingReadyCount++
			}
			if delivery.Attempts > 0 {
				overview.RetryingCount++
			}
			if oldestPending == nil || delivery.CreatedAt.Before(*oldestPending) {
				createdAt := delivery.CreatedAt
				oldestPending = &createdAt
			}
		case valueobjects.DeliveryStatusFailed:
			overview.FailedCount++
		case valueobjects.DeliveryStatusDelivered:
			overview.DeliveredCount++
		}
	}

	if oldestPending != nil {
		age := int64(now.UTC().Sub(*oldestPending).Seconds())
		if age < 0 {
			age = 0
		}
		overview.OldestPendingCreatedAt = oldestPending
		overview.OldestPendingAgeSec = &age
	}
	return overview, nil
}

// Sweep evicts delivered and failed rows last updated at least retention before now,
// together with their replay keys, and reports how many were removed.
func (q *WebhookDeliveryQueue) Sweep(now time.Time, retention time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := now.UTC().Add(-retention)
	removed := 0
	for id, record := range q.deliveries {
		delivery := record.delivery
		if delivery.Status != valueobjects.DeliveryStatusDelivered && delivery.Status != valueobjects.DeliveryStatusFailed {
			continue
		}
		if delivery.UpdatedAt.After(cutoff) {
			continue
		}
		delete(q.deliveries, id)
		delete(q.dedupe, delivery.EventID+"|"+delivery.SubscriptionID)
		removed++
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (q *WebhookDeliveryQueue) Run(ctx context.Context, interval time.Duration, retention time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			q.Sweep(tick.UTC(), retention)
		}
	}
}

// Len reports the number of retained rows.
func (q *WebhookDeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.deliveries)
}

// settle applies a terminal or retry transition when the row is still pending and
// leased to leaseOwner (or unleased).
func (q *WebhookDeliveryQueue) settle(id string, leaseOwner string, apply func(*entities.WebhookDelivery)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	record, ok := q.deliveries[id]
	if !ok || record.delivery.Status != valueobjects.DeliveryStatusPending {
		return false
	}
	owner := strings.TrimSpace(leaseOwner)
	if record.delivery.LeaseOwner != "" && record.delivery.LeaseOwner != owner {
		return false
	}

	apply(&record.delivery)
	record.delivery.LeaseOwner = ""
	record.delivery.LeaseUntil = nil
	if record.delivery.Status == valueobjects.DeliveryStatusPending {
		q.schedule(record, record.delivery.NextAttemptAt)
	} else {
		record.version++
	}
	return true
}

func (q *WebhookDeliveryQueue) schedule(record *queuedDelivery, dueAt time.Time) {
	record.version++
	q.sequence++
	heap.Push(&q.due, dueEntry{
		id:       record.delivery.ID,
		dueAt:    dueAt,
		sequence: q.sequence,
		version:  record.version,
	})
}

func toDeliveryView(delivery entities.WebhookDelivery) dto.WebhookDeliveryView {
	view := dto.WebhookDeliveryView{
		ID:             delivery.ID,
		EventID:        delivery.EventID,
		EventType:      delivery.EventType.String(),
		SubscriptionID: delivery.SubscriptionID,
		Status:         delivery.Status.String(),
		Attempts:       delivery.Attempts,
		MaxAttempts:    delivery.MaxAttempts,
		CreatedAt:      delivery.CreatedAt,
		UpdatedAt:      delivery.UpdatedAt,
		DeliveredAt:    delivery.DeliveredAt,
	}
	if delivery.Status == valueobjects.DeliveryStatusPending {
		nextAttemptAt := delivery.NextAttemptAt
		view.NextAttemptAt = &nextAttemptAt
	}
	if delivery.LastError != "" {
		lastError := delivery.LastError
		view.LastError = &lastError
	}
	if delivery.LastStatusCode > 0 {
		statusCode := delivery.LastStatusCode
		view.LastStatusCode = &statusCode
	}
	return view
}

type dueHeap []dueEntry

func (h dueHeap) Len() int { return len(h) }

func (h dueHeap) Less(i, j int) bool {
	if h[i].dueAt.Equal(h[j].dueAt) {
		return h[i].sequence < h[j].sequence
	}
	return h[i].dueAt.Before(h[j].dueAt)
}

func (h dueHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *dueHeap) Push(x any) { *h = append(*h, x.(dueEntry)) }

func (h *dueHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
