package dto

import (
	"encoding/json"
	"time"
)

type DomainEvent struct {
	ID          string
	Type        string
	OccurredAt  time.Time
	ActorUserID string
	Data        json.RawMessage
}

// WebhookPayload is the JSON body posted to subscribers.
type WebhookPayload struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type FanOutDomainEventOutput struct {
	EventID    string
	Matched    int
	Enqueued   int
	Subscribed []string
}
