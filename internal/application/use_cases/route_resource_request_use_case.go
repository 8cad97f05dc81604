package use_cases

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

type routeResourceRequestUseCase struct {
	handler   portsout.ResourceHandler
	publisher portsout.DomainEventPublisher
	clock     Clock
}

func NewRouteResourceRequestUseCase(
	handler portsout.ResourceHandler,
	publisher portsout.DomainEventPublisher,
	clock Clock,
) portsin.RouteResourceRequestUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &routeResourceRequestUseCase{
		handler:   handler,
		publisher: publisher,
		clock:     clock,
	}
}

// Execute forwards to the resource handler and returns its result untouched. The
// domain event is published only once the handler reported a 2xx result.
func (u *routeResourceRequestUseCase) Execute(
	ctx context.Context,
	command dto.RouteResourceCommand,
) (dto.ResourceResult, *apperrors.AppError) {
	if u.handler == nil {
		return dto.ResourceResult{}, apperrors.NewInternal(
			"resource_handler_missing",
			"resource handler is required",
			nil,
		)
	}

	request := command.Request
	request.Method = strings.ToUpper(strings.TrimSpace(request.Method))
	if request.Method == "" || !strings.HasPrefix(request.Path, "/") {
		return dto.ResourceResult{}, apperrors.NewValidation(
			"invalid_request",
			"resource request method and path are required",
			map[string]any{"method": request.Method, "path": request.Path},
		)
	}

	var eventType valueobjects.EventType
	if raw := strings.TrimSpace(command.EventType); raw != "" {
		parsed, appErr := valueobjects.ParseEventType(raw)
		if appErr != nil {
			return dto.ResourceResult{}, apperrors.NewInternal(
				"route_event_type_invalid",
				"route is bound to an unknown event type",
				map[string]any{"event_type": raw},
			)
		}
		eventType = parsed
	}

	result, appErr := u.handler.Handle(ctx, request)
	if appErr != nil {
		return dto.ResourceResult{}, appErr
	}

	if eventType != "" && result.Succeeded() && u.publisher != nil {
		u.publisher.Publish(ctx, dto.DomainEvent{
			ID:          uuid.NewString(),
			Type:        eventType.String(),
			OccurredAt:  u.clock.NowUTC(),
			ActorUserID: request.UserID,
			Data:        resourceEventData(request, result),
		})
	}

	return result, nil
}

// resourceEventData uses the handler's JSON body when it has one; bodiless results
// (typically deletes) describe the affected path instead.
func resourceEventData(request dto.ResourceRequest, result dto.ResourceResult) json.RawMessage {
	trimmed := bytes.TrimSpace(result.Body)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		compacted := bytes.Buffer{}
		if err := json.Compact(&compacted, trimmed); err == nil {
			return json.RawMessage(compacted.Bytes())
		}
	}

	fallback, _ := json.Marshal(map[string]string{
		"method": request.Method,
		"path":   request.Path,
	})
	return fallback
}
