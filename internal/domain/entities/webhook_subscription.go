package entities

import (
	"time"

	valueobjects "taskflow/internal/domain/value_objects"
)

type WebhookSubscription struct {
	ID          string
	OwnerUserID string
	URL         string
	Secret      string
	EventTypes  []valueobjects.EventType
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s WebhookSubscription) Subscribes(eventType valueobjects.EventType) bool {
	if !s.Active {
		return false
	}
	for _, candidate := range s.EventTypes {
		if candidate == eventType {
			return true
		}
	}
	return false
}
