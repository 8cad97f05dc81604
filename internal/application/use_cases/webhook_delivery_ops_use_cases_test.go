//go:build !integration

package use_cases

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

func TestListWebhookDeliveriesUseCaseDefaultLimit(t *testing.T) {
	repo := newFakeSubscriptionRepository()
	created := seedSubscription(t, repo, "user-1")
	readModel := &fakeDeliveryReadModel{}
	useCase := NewListWebhookDeliveriesUseCase(repo, readModel)

	output, appErr := useCase.Execute(context.Background(), dto.ListWebhookDeliveriesQuery{
		OwnerUserID:    "user-1",
		SubscriptionID: created.ID,
		Status:         "FAILED",
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if readModel.lastLimit != 50 || readModel.lastStatus != "failed" {
		t.Fatalf("expected limit=50 status=failed, got %d %q", readModel.lastLimit, readModel.lastStatus)
	}
	if output.Deliveries == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestListWebhookDeliveriesUseCaseRejectsInvalidQuery(t *testing.T) {
	repo := newFakeSubscriptionRepository()
	created := seedSubscription(t, repo, "user-1")
	useCase := NewListWebhookDeliveriesUseCase(repo, &fakeDeliveryReadModel{})

	for _, query := range []dto.ListWebhookDeliveriesQuery{
		{OwnerUserID: "user-1", SubscriptionID: created.ID, Limit: 201},
		{OwnerUserID: "user-1", SubscriptionID: created.ID, Limit: -1},
		{OwnerUserID: "user-1", SubscriptionID: created.ID, Status: "lost"},
	} {
		_, appErr := useCase.Execute(context.Background(), query)
		if appErr == nil || appErr.Type != apperrors.TypeValidation {
			t.Fatalf("expected validation error for %+v, got %+v", query, appErr)
		}
	}
}

func TestRequeueWebhookDeliveryUseCaseReturnsConflictWhenNotFailed(t *testing.T) {
	repo := newFakeSubscriptionRepository()
	created := seedSubscription(t, repo, "user-1")
	deliveries := &fakeDeliveryRepository{requeue: dto.WebhookDeliveryMutationResult{
		Found:         true,
		Updated:       false,
		CurrentStatus: "delivered",
	}}
	useCase := NewRequeueWebhookDeliveryUseCase(repo, deliveries, nil)

	_, appErr := useCase.Execute(context.Background(), dto.RequeueWebhookDeliveryCommand{
		OwnerUserID:    "user-1",
		SubscriptionID: created.ID,
		DeliveryID:     "d1",
	})
	if appErr == nil || appErr.Code != "webhook_delivery_not_requeueable" {
		t.Fatalf("expected not requeueable conflict, got %+v", appErr)
	}
	if appErr.Details["delivery_status"] != "delivered" {
		t.Fatalf("expected current status detail, got %v", appErr.Details)
	}
}

func TestRequeueWebhookDeliveryUseCaseSuccess(t *testing.T) {
	repo := newFakeSubscriptionRepository()
	created := seedSubscription(t, repo, "user-1")
	deliveries := &fakeDeliveryRepository{requeue: dto.WebhookDeliveryMutationResult{Found: true, Updated: true}}
	now := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	useCase := NewRequeueWebhookDeliveryUseCase(repo, deliveries, newFakeClock(now))

	output, appErr := useCase.Execute(context.Background(), dto.RequeueWebhookDeliveryCommand{
		OwnerUserID:    "user-1",
		SubscriptionID: created.ID,
		DeliveryID:     "d1",
	})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Status != "pending" || !output.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected output %+v", output)
	}
}

func TestRequeueWebhookDeliveryUseCaseReturnsNotFound(t *testing.T) {
	repo := newFakeSubscriptionRepository()
	created := seedSubscription(t, repo, "user-1")
	useCase := NewRequeueWebhookDeliveryUseCase(repo, &fakeDeliveryRepository{}, nil)

	_, appErr := useCase.Execute(context.Background(), dto.RequeueWebhookDeliveryCommand{
		OwnerUserID:    "user-1",
		SubscriptionID: created.ID,
		DeliveryID:     "missing",
	})
	if appErr == nil || appErr.Code != "webhook_delivery_not_found" {
		t.Fatalf("expected not found, got %+v", appErr)
	}
}

func TestGetWebhookDeliveryOverviewUseCaseScopesToOwnerSubscriptions(t *testing.T) {
	repo := newFakeSubscriptionRepository()
	created := seedSubscription(t, repo, "user-1")
	seedSubscription(t, repo, "user-2")
	readModel := &fakeDeliveryReadModel{overview: dto.WebhookDeliveryOverview{PendingCount: 3}}
	useCase := NewGetWebhookDeliveryOverviewUseCase(repo, readModel, nil)

	output, appErr := useCase.Execute(context.Background(), dto.GetWebhookDeliveryOverviewQuery{OwnerUserID: "user-1"})
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.PendingCount != 3 {
		t.Fatalf("expected overview from read model, got %+v", output)
	}
	if len(readModel.lastSubIDs) != 1 || readModel.lastSubIDs[0] != created.ID {
		t.Fatalf("expected only user-1 subscription ids, got %v", readModel.lastSubIDs)
	}

	readModel.overviewRuns = 0
	output, _ = useCase.Execute(context.Background(), dto.GetWebhookDeliveryOverviewQuery{OwnerUserID: "user-3"})
	if readModel.overviewRuns != 0 || output.PendingCount != 0 {
		t.Fatalf("expected empty overview without querying, got %+v", output)
	}
}
