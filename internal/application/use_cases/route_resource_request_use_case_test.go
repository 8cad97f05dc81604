//go:build !integration

package use_cases

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

func TestRouteResourceRequestUseCasePublishesAfterSuccess(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	handler := &fakeResourceHandler{result: dto.ResourceResult{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{ "id": "task-1", "title": "Write docs" }`),
	}}
	publisher := &fakeDomainEventPublisher{}
	useCase := NewRouteResourceRequestUseCase(handler, publisher, clock)

	result, appErr := useCase.Execute(context.Background(), dto.RouteResourceCommand{
		Request: dto.ResourceRequest{
			Method: "post",
			Path:   "/v1/tasks",
			UserID: "user-1",
			Body:   []byte(`{"title":"Write docs"}`),
		},
		EventType: "task.created",
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if result.StatusCode != 201 || string(result.Body) != `{ "id": "task-1", "title": "Write docs" }` {
		t.Fatalf("expected verbatim result, got %+v", result)
	}
	if handler.requests[0].Method != "POST" {
		t.Fatalf("expected normalized method, got %q", handler.requests[0].Method)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != "task.created" || event.ActorUserID != "user-1" || event.ID == "" {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.OccurredAt.Equal(clock.NowUTC()) {
		t.Fatalf("expected event timestamp from clock, got %s", event.OccurredAt)
	}
	if string(event.Data) != `{"id":"task-1","title":"Write docs"}` {
		t.Fatalf("expected compacted resource body, got %s", event.Data)
	}
}

func TestRouteResourceRequestUseCaseSkipsEventOnFailure(t *testing.T) {
	publisher := &fakeDomainEventPublisher{}

	for _, status := range []int{302, 400, 404, 409, 500} {
		handler := &fakeResourceHandler{result: dto.ResourceResult{StatusCode: status}}
		useCase := NewRouteResourceRequestUseCase(handler, publisher, nil)

		result, appErr := useCase.Execute(context.Background(), dto.RouteResourceCommand{
			Request:   dto.ResourceRequest{Method: "DELETE", Path: "/v1/tasks/task-1", UserID: "user-1"},
			EventType: "task.deleted",
		})
		if appErr != nil {
			t.Fatalf("expected no error, got %+v", appErr)
		}
		if result.StatusCode != status {
			t.Fatalf("expected status %d propagated, got %d", status, result.StatusCode)
		}
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events, got %+v", publisher.events)
	}
}

func TestRouteResourceRequestUseCaseSkipsEventOnUpstreamError(t *testing.T) {
	handler := &fakeResourceHandler{err: apperrors.NewUpstream("upstream_unavailable", "down", nil)}
	publisher := &fakeDomainEventPublisher{}
	useCase := NewRouteResourceRequestUseCase(handler, publisher, nil)

	_, appErr := useCase.Execute(context.Background(), dto.RouteResourceCommand{
		Request:   dto.ResourceRequest{Method: "POST", Path: "/v1/tasks", UserID: "user-1"},
		EventType: "task.created",
	})
	if appErr == nil || appErr.Type != apperrors.TypeUpstream {
		t.Fatalf("expected upstream error, got %+v", appErr)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events, got %+v", publisher.events)
	}
}

func TestRouteResourceRequestUseCaseDescribesBodilessResult(t *testing.T) {
	handler := &fakeResourceHandler{result: dto.ResourceResult{StatusCode: 204}}
	publisher := &fakeDomainEventPublisher{}
	useCase := NewRouteResourceRequestUseCase(handler, publisher, nil)

	_, appErr := useCase.Execute(context.Background(), dto.RouteResourceCommand{
		Request:   dto.ResourceRequest{Method: "DELETE", Path: "/v1/comments/c-1", UserID: "user-1"},
		EventType: "comment.deleted",
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}

	data := map[string]string{}
	if err := json.Unmarshal(publisher.events[0].Data, &data); err != nil {
		t.Fatalf("expected json data, got %v", err)
	}
	if data["method"] != "DELETE" || data["path"] != "/v1/comments/c-1" {
		t.Fatalf("unexpected fallback data %v", data)
	}
}

func TestRouteResourceRequestUseCaseReadsPublishNothing(t *testing.T) {
	handler := &fakeResourceHandler{result: dto.ResourceResult{StatusCode: 200, Body: []byte(`[]`)}}
	publisher := &fakeDomainEventPublisher{}
	useCase := NewRouteResourceRequestUseCase(handler, publisher, nil)

	_, appErr := useCase.Execute(context.Background(), dto.RouteResourceCommand{
		Request: dto.ResourceRequest{Method: "GET", Path: "/v1/tasks", UserID: "user-1"},
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events for reads, got %+v", publisher.events)
	}
}

func TestRouteResourceRequestUseCaseRejectsUnknownEventBinding(t *testing.T) {
	handler := &fakeResourceHandler{result: dto.ResourceResult{StatusCode: 200}}
	useCase := NewRouteResourceRequestUseCase(handler, &fakeDomainEventPublisher{}, nil)

	_, appErr := useCase.Execute(context.Background(), dto.RouteResourceCommand{
		Request:   dto.ResourceRequest{Method: "POST", Path: "/v1/tasks", UserID: "user-1"},
		EventType: "task.archived",
	})
	if appErr == nil || appErr.Code != "route_event_type_invalid" {
		t.Fatalf("expected route_event_type_invalid, got %+v", appErr)
	}
	if len(handler.requests) != 0 {
		t.Fatalf("expected handler not to be called")
	}
}
