package use_cases

import (
	"context"
	"encoding/json"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/policies"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

type fanOutDomainEventUseCase struct {
	subscriptions portsout.WebhookSubscriptionRepository
	deliveries    portsout.WebhookDeliveryRepository
	maxAttempts   int
	clock         Clock
}

func NewFanOutDomainEventUseCase(
	subscriptions portsout.WebhookSubscriptionRepository,
	deliveries portsout.WebhookDeliveryRepository,
	maxAttempts int,
	clock Clock,
) portsin.FanOutDomainEventUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if maxAttempts <= 0 {
		maxAttempts = policies.DefaultDeliveryMaxAttempts
	}

	return &fanOutDomainEventUseCase{
		subscriptions: subscriptions,
		deliveries:    deliveries,
		maxAttempts:   maxAttempts,
		clock:         clock,
	}
}

func (u *fanOutDomainEventUseCase) Execute(
	ctx context.Context,
	event dto.DomainEvent,
) (dto.FanOutDomainEventOutput, *apperrors.AppError) {
	if u.subscriptions == nil || u.deliveries == nil {
		return dto.FanOutDomainEventOutput{}, apperrors.NewInternal(
			"webhook_fan_out_not_configured",
			"webhook fan-out is not configured",
			nil,
		)
	}

	eventID := strings.TrimSpace(event.ID)
	if eventID == "" {
		return dto.FanOutDomainEventOutput{}, apperrors.NewValidation(
			"domain_event_id_missing",
			"domain event id is required",
			nil,
		)
	}
	eventType, appErr := valueobjects.ParseEventType(event.Type)
	if appErr != nil {
		return dto.FanOutDomainEventOutput{}, appErr
	}

	output := dto.FanOutDomainEventOutput{EventID: eventID}
	candidates, appErr := u.subscriptions.ListActiveByEventType(ctx, eventType)
	if appErr != nil {
		return output, appErr
	}

	now := u.clock.NowUTC()
	occurredAt := event.OccurredAt.UTC()
	if event.OccurredAt.IsZero() {
		occurredAt = now
	}
	data := event.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	payload, err := json.Marshal(dto.WebhookPayload{
		Event:     eventType.String(),
		Timestamp: occurredAt,
		Data:      data,
	})
	if err != nil {
		return output, apperrors.NewValidation(
			"domain_event_data_invalid",
			"domain event data must be valid JSON",
			map[string]any{"event_id": eventID, "error": err.Error()},
		)
	}

	batch := make([]dto.NewWebhookDelivery, 0, len(candidates))
	for _, subscription := range candidates {
		if !subscription.Subscribes(eventType) {
			continue
		}
		output.Matched++
		output.Subscribed = append(output.Subscribed, subscription.ID)
		batch = append(batch, dto.NewWebhookDelivery{
			ID:             uuid.NewString(),
			EventID:        eventID,
			EventType:      eventType.String(),
			SubscriptionID: subscription.ID,
			DestinationURL: subscription.URL,
			Secret:         subscription.Secret,
			Payload:        payload,
			MaxAttempts:    u.maxAttempts,
			NextAttemptAt:  now,
			CreatedAt:      now,
		})
	}
	if len(batch) == 0 {
		return output, nil
	}

	if appErr := u.deliveries.Enqueue(ctx, batch); appErr != nil {
		return output, appErr
	}
	output.Enqueued = len(batch)
	return output, nil
}
