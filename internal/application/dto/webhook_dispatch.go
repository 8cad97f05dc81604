package dto

import "time"

type DispatchWebhookDeliveriesCommand struct {
	Now                        time.Time
	BatchSize                  int
	WorkerID                   string
	LeaseDuration              time.Duration
	MaxInFlight                int
	MaxInFlightPerSubscription int
	RetrySchedule              []time.Duration
}

type DispatchWebhookDeliveriesOutput struct {
	Claimed           int
	Sent              int
	Retried           int
	Failed            int
	Skipped           int
	Deferred          int
	Errors            int
	HTTP2xxCount      int
	HTTP4xxCount      int
	HTTP5xxCount      int
	NetworkErrorCount int
	LatencyMS         int64
}

type NewWebhookDelivery struct {
	ID             string
	EventID        string
	EventType      string
	SubscriptionID string
	DestinationURL string
	Secret         string
	Payload        []byte
	MaxAttempts    int
	NextAttemptAt  time.Time
	CreatedAt      time.Time
}

type ClaimedWebhookDelivery struct {
	ID             string
	EventID        string
	EventType      string
	SubscriptionID string
	DestinationURL string
	Secret         string
	Payload        []byte
	Attempts       int
	MaxAttempts    int
}

type SendWebhookInput struct {
	DeliveryID      string
	EventID         string
	EventType       string
	DeliveryAttempt int
	DestinationURL  string
	Secret          string
	Payload         []byte
}

type SendWebhookOutput struct {
	StatusCode int
}
