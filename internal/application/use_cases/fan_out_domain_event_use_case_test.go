//go:build !integration

package use_cases

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taskflow/internal/application/dto"
	"taskflow/internal/domain/entities"
	valueobjects "taskflow/internal/domain/value_objects"
)

func TestFanOutDomainEventUseCaseEnqueuesOnlyMatchingSubscriptions(t *testing.T) {
	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	subscriptions := newFakeSubscriptionRepository(
		entities.WebhookSubscription{
			ID:         "sub-a",
			URL:        "https://a.example.com/hook",
			Secret:     "secret-a-0123456789",
			EventTypes: []valueobjects.EventType{valueobjects.EventTaskCreated},
			Active:     true,
		},
		entities.WebhookSubscription{
			ID:         "sub-b",
			URL:        "https://b.example.com/hook",
			Secret:     "secret-b-0123456789",
			EventTypes: []valueobjects.EventType{valueobjects.EventCommentCreated},
			Active:     true,
		},
		entities.WebhookSubscription{
			ID:         "sub-c",
			URL:        "https://c.example.com/hook",
			Secret:     "secret-c-0123456789",
			EventTypes: []valueobjects.EventType{valueobjects.EventTaskCreated},
			Active:     false,
		},
	)
	deliveries := &fakeDeliveryRepository{}
	useCase := NewFanOutDomainEventUseCase(subscriptions, deliveries, 0, newFakeClock(now))

	output, appErr := useCase.Execute(context.Background(), dto.DomainEvent{
		ID:         "evt-1",
		Type:       "task.created",
		OccurredAt: now.Add(-time.Second),
		Data:       json.RawMessage(`{"id":"task-1"}`),
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Matched != 1 || output.Enqueued != 1 || output.Subscribed[0] != "sub-a" {
		t.Fatalf("expected only sub-a matched, got %+v", output)
	}

	delivery := deliveries.enqueued[0]
	if delivery.SubscriptionID != "sub-a" || delivery.Secret != "secret-a-0123456789" {
		t.Fatalf("unexpected delivery %+v", delivery)
	}
	if delivery.MaxAttempts != 5 || !delivery.NextAttemptAt.Equal(now) {
		t.Fatalf("expected 5 attempts due now, got %+v", delivery)
	}

	payload := dto.WebhookPayload{}
	if err := json.Unmarshal(delivery.Payload, &payload); err != nil {
		t.Fatalf("expected json payload, got %v", err)
	}
	if payload.Event != "task.created" || string(payload.Data) != `{"id":"task-1"}` {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if !payload.Timestamp.Equal(now.Add(-time.Second)) {
		t.Fatalf("expected occurred-at timestamp, got %s", payload.Timestamp)
	}
}

func TestFanOutDomainEventUseCaseWithoutSubscribersEnqueuesNothing(t *testing.T) {
	deliveries := &fakeDeliveryRepository{}
	useCase := NewFanOutDomainEventUseCase(newFakeSubscriptionRepository(), deliveries, 5, nil)

	output, appErr := useCase.Execute(context.Background(), dto.DomainEvent{ID: "evt-2", Type: "file.deleted"})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Enqueued != 0 || len(deliveries.enqueued) != 0 {
		t.Fatalf("expected nothing enqueued, got %+v", output)
	}
}

func TestFanOutDomainEventUseCaseRejectsUnknownEventType(t *testing.T) {
	useCase := NewFanOutDomainEventUseCase(newFakeSubscriptionRepository(), &fakeDeliveryRepository{}, 5, nil)

	_, appErr := useCase.Execute(context.Background(), dto.DomainEvent{ID: "evt-3", Type: "user.created"})
	if appErr == nil || appErr.Code != "invalid_request" {
		t.Fatalf("expected invalid_request, got %+v", appErr)
	}
}
