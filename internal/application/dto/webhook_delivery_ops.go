package dto

import "time"

type ListWebhookDeliveriesQuery struct {
	OwnerUserID    string
	SubscriptionID string
	Status         string
	Limit          int
}

type WebhookDeliveryView struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	EventType      string     `json:"event_type"`
	SubscriptionID string     `json:"subscription_id"`
	Status         string     `json:"status"`
	Attempts       int        `json:"attempts"`
	MaxAttempts    int        `json:"max_attempts"`
	NextAttemptAt  *time.Time `json:"next_attempt_at,omitempty"`
	LastError      *string    `json:"last_error,omitempty"`
	LastStatusCode *int       `json:"last_status_code,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
}

type ListWebhookDeliveriesOutput struct {
	Deliveries []WebhookDeliveryView `json:"deliveries"`
}

type RequeueWebhookDeliveryCommand struct {
	OwnerUserID    string
	SubscriptionID string
	DeliveryID     string
	Now            time.Time
}

type RequeueWebhookDeliveryOutput struct {
	DeliveryID string    `json:"delivery_id"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type WebhookDeliveryMutationResult struct {
	Found         bool
	Updated       bool
	CurrentStatus string
}

type GetWebhookDeliveryOverviewQuery struct {
	OwnerUserID string
	Now         time.Time
}

type WebhookDeliveryOverview struct {
	PendingCount           int64      `json:"pending_count"`
	PendingReadyCount      int64      `json:"pending_ready_count"`
	RetryingCount          int64      `json:"retrying_count"`
	FailedCount            int64      `json:"failed_count"`
	DeliveredCount         int64      `json:"delivered_count"`
	OldestPendingCreatedAt *time.Time `json:"oldest_pending_created_at,omitempty"`
	OldestPendingAgeSec    *int64     `json:"oldest_pending_age_seconds,omitempty"`
}
