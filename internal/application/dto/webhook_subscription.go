package dto

import "time"

type CreateWebhookSubscriptionCommand struct {
	OwnerUserID string
	URL         string
	Secret      string
	EventTypes  []string
	Now         time.Time
}

type WebhookSubscriptionView struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	EventTypes []string  `json:"event_types"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreatedWebhookSubscription is the only view that exposes the signing secret.
type CreatedWebhookSubscription struct {
	WebhookSubscriptionView
	Secret string `json:"secret"`
}

type GetWebhookSubscriptionQuery struct {
	OwnerUserID    string
	SubscriptionID string
}

type ListWebhookSubscriptionsQuery struct {
	OwnerUserID string
}

type ListWebhookSubscriptionsOutput struct {
	Subscriptions []WebhookSubscriptionView `json:"subscriptions"`
}

type UpdateWebhookSubscriptionEventsCommand struct {
	OwnerUserID    string
	SubscriptionID string
	EventTypes     []string
	Now            time.Time
}

type DeactivateWebhookSubscriptionCommand struct {
	OwnerUserID    string
	SubscriptionID string
	Now            time.Time
}
