package entities

import (
	"time"

	valueobjects "taskflow/internal/domain/value_objects"
)

// WebhookDelivery is one event addressed to one subscription. Destination and secret
// are copied from the subscription when the delivery is created.
type WebhookDelivery struct {
	ID             string
	EventID        string
	EventType      valueobjects.EventType
	SubscriptionID string
	DestinationURL string
	Secret         string
	Payload        []byte
	Attempts       int
	MaxAttempts    int
	Status         valueobjects.DeliveryStatus
	NextAttemptAt  time.Time
	LastError      string
	LastStatusCode int
	LeaseOwner     string
	LeaseUntil     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeliveredAt    *time.Time
}

func (d WebhookDelivery) DueAt(now time.Time) bool {
	if d.Status != valueobjects.DeliveryStatusPending {
		return false
	}
	if d.NextAttemptAt.After(now) {
		return false
	}
	return d.LeaseUntil == nil || !d.LeaseUntil.After(now)
}
