//go:build !integration

package use_cases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

func dispatchCommand(now time.Time) dto.DispatchWebhookDeliveriesCommand {
	return dto.DispatchWebhookDeliveriesCommand{
		Now:                        now,
		BatchSize:                  10,
		WorkerID:                   "webhook-worker-a",
		LeaseDuration:              30 * time.Second,
		MaxInFlight:                8,
		MaxInFlightPerSubscription: 2,
	}
}

func claimedDelivery(id string, subscriptionID string, attempts int) dto.ClaimedWebhookDelivery {
	return dto.ClaimedWebhookDelivery{
		ID:             id,
		EventID:        "evt-" + id,
		EventType:      "task.created",
		SubscriptionID: subscriptionID,
		DestinationURL: "https://hooks.example.com/" + subscriptionID,
		Secret:         "secret-" + subscriptionID,
		Payload:        []byte(`{"event":"task.created"}`),
		Attempts:       attempts,
		MaxAttempts:    5,
	}
}

func TestDispatchWebhookDeliveriesUseCaseValidatesInput(t *testing.T) {
	useCase := NewDispatchWebhookDeliveriesUseCase(&fakeDeliveryRepository{}, &fakeWebhookEventGateway{})
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(*dto.DispatchWebhookDeliveriesCommand)
		code   string
	}{
		{name: "batch", mutate: func(c *dto.DispatchWebhookDeliveriesCommand) { c.BatchSize = 0 }, code: "dispatch_webhook_batch_size_invalid"},
		{name: "worker", mutate: func(c *dto.DispatchWebhookDeliveriesCommand) { c.WorkerID = " " }, code: "dispatch_webhook_worker_id_invalid"},
		{name: "lease", mutate: func(c *dto.DispatchWebhookDeliveriesCommand) { c.LeaseDuration = 0 }, code: "dispatch_webhook_lease_duration_invalid"},
		{name: "in flight", mutate: func(c *dto.DispatchWebhookDeliveriesCommand) { c.MaxInFlight = 0 }, code: "dispatch_webhook_max_in_flight_invalid"},
		{
			name:   "per subscription",
			mutate: func(c *dto.DispatchWebhookDeliveriesCommand) { c.MaxInFlightPerSubscription = 0 },
			code:   "dispatch_webhook_max_in_flight_per_subscription_invalid",
		},
		{
			name:   "schedule",
			mutate: func(c *dto.DispatchWebhookDeliveriesCommand) { c.RetrySchedule = []time.Duration{time.Minute, 0} },
			code:   "dispatch_webhook_retry_schedule_invalid",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			command := dispatchCommand(now)
			tc.mutate(&command)
			_, appErr := useCase.Execute(context.Background(), command)
			if appErr == nil || appErr.Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, appErr)
			}
		})
	}
}

func TestDispatchWebhookDeliveriesUseCaseMarksDeliveredOnSuccess(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepository{claimed: []dto.ClaimedWebhookDelivery{claimedDelivery("d1", "sub-a", 0)}}
	gateway := &fakeWebhookEventGateway{results: map[string]dto.SendWebhookOutput{"d1": {StatusCode: 204}}}
	useCase := NewDispatchWebhookDeliveriesUseCase(repo, gateway)

	output, appErr := useCase.Execute(context.Background(), dispatchCommand(now))
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Claimed != 1 || output.Sent != 1 || output.HTTP2xxCount != 1 {
		t.Fatalf("expected claimed=1 sent=1, got %+v", output)
	}
	if len(repo.delivered) != 1 || repo.delivered[0].attempts != 1 || repo.delivered[0].statusCode != 204 {
		t.Fatalf("unexpected delivered marks %+v", repo.delivered)
	}
	if repo.claimLimit != 10 {
		t.Fatalf("expected batch size passed to claim, got %d", repo.claimLimit)
	}

	input := gateway.inputs[0]
	if input.DeliveryAttempt != 1 || input.Secret != "secret-sub-a" || input.DeliveryID != "d1" {
		t.Fatalf("unexpected gateway input %+v", input)
	}
}

func TestDispatchWebhookDeliveriesUseCaseRetriesWithSchedule(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepository{claimed: []dto.ClaimedWebhookDelivery{
		claimedDelivery("d1", "sub-a", 0),
		claimedDelivery("d2", "sub-b", 2),
	}}
	gateway := &fakeWebhookEventGateway{
		results: map[string]dto.SendWebhookOutput{"d1": {StatusCode: 503}},
		errors: map[string]*apperrors.AppError{
			"d2": apperrors.NewInternal("webhook_http_failed", "connection refused", nil),
		},
	}
	useCase := NewDispatchWebhookDeliveriesUseCase(repo, gateway)

	output, appErr := useCase.Execute(context.Background(), dispatchCommand(now))
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Retried != 2 || output.Failed != 0 || output.HTTP5xxCount != 1 || output.NetworkErrorCount != 1 {
		t.Fatalf("unexpected output %+v", output)
	}

	marks := map[string]fakeDeliveryMark{}
	for _, mark := range repo.retried {
		marks[mark.id] = mark
	}
	if !marks["d1"].nextAttemptAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("expected first retry after 1m, got %s", marks["d1"].nextAttemptAt)
	}
	if marks["d1"].lastError != "webhook endpoint returned status 503" {
		t.Fatalf("unexpected last error %q", marks["d1"].lastError)
	}
	if marks["d2"].attempts != 3 || !marks["d2"].nextAttemptAt.Equal(now.Add(30*time.Minute)) {
		t.Fatalf("expected third attempt retried after 30m, got %+v", marks["d2"])
	}
	if marks["d2"].lastError != "connection refused" {
		t.Fatalf("unexpected last error %q", marks["d2"].lastError)
	}
}

func TestDispatchWebhookDeliveriesUseCaseMarksFailedAtMaxAttempts(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepository{claimed: []dto.ClaimedWebhookDelivery{claimedDelivery("d1", "sub-a", 4)}}
	gateway := &fakeWebhookEventGateway{results: map[string]dto.SendWebhookOutput{"d1": {StatusCode: 410}}}
	useCase := NewDispatchWebhookDeliveriesUseCase(repo, gateway)

	output, appErr := useCase.Execute(context.Background(), dispatchCommand(now))
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Failed != 1 || output.Retried != 0 || output.HTTP4xxCount != 1 {
		t.Fatalf("expected failed=1, got %+v", output)
	}
	if len(repo.failed) != 1 || repo.failed[0].attempts != 5 || repo.failed[0].statusCode != 410 {
		t.Fatalf("unexpected failed marks %+v", repo.failed)
	}
}

func TestDispatchWebhookDeliveriesUseCaseSkipsLostLease(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepository{
		claimed:   []dto.ClaimedWebhookDelivery{claimedDelivery("d1", "sub-a", 0)},
		lostLease: map[string]bool{"d1": true},
	}
	useCase := NewDispatchWebhookDeliveriesUseCase(repo, &fakeWebhookEventGateway{})

	output, appErr := useCase.Execute(context.Background(), dispatchCommand(now))
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Skipped != 1 || output.Sent != 0 {
		t.Fatalf("expected skipped=1, got %+v", output)
	}
}

func TestDispatchWebhookDeliveriesUseCaseBoundsConcurrency(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	claimed := []dto.ClaimedWebhookDelivery{}
	for i := 0; i < 6; i++ {
		claimed = append(claimed, claimedDelivery(fmt.Sprintf("a%d", i), "sub-a", 0))
		claimed = append(claimed, claimedDelivery(fmt.Sprintf("b%d", i), "sub-b", 0))
	}
	repo := &fakeDeliveryRepository{claimed: claimed}
	gateway := &fakeWebhookEventGateway{delay: 20 * time.Millisecond}
	useCase := NewDispatchWebhookDeliveriesUseCase(repo, gateway)

	command := dispatchCommand(now)
	command.MaxInFlight = 3
	command.MaxInFlightPerSubscription = 1
	output, appErr := useCase.Execute(context.Background(), command)
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Sent != 12 {
		t.Fatalf("expected all deliveries sent, got %+v", output)
	}
	if gateway.peakAll > 3 {
		t.Fatalf("expected at most 3 in flight, got %d", gateway.peakAll)
	}
	for destination, peak := range gateway.peak {
		if peak > 1 {
			t.Fatalf("expected at most 1 in flight for %s, got %d", destination, peak)
		}
	}
}

func TestDispatchWebhookDeliveriesUseCaseSlowSubscriberDoesNotDelayOthers(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	claimed := []dto.ClaimedWebhookDelivery{}
	for i := 0; i < 6; i++ {
		claimed = append(claimed, claimedDelivery(fmt.Sprintf("a%d", i), "sub-a", 0))
	}
	claimed = append(claimed, claimedDelivery("b0", "sub-b", 0), claimedDelivery("c0", "sub-c", 0))
	repo := &fakeDeliveryRepository{claimed: claimed}
	gateway := &fakeWebhookEventGateway{delay: 50 * time.Millisecond}
	useCase := NewDispatchWebhookDeliveriesUseCase(repo, gateway)

	command := dispatchCommand(now)
	command.MaxInFlight = 3
	command.MaxInFlightPerSubscription = 1
	output, appErr := useCase.Execute(context.Background(), command)
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Sent != 8 {
		t.Fatalf("expected all deliveries sent, got %+v", output)
	}
	if gateway.peakAll != 3 {
		t.Fatalf("expected the global limit to be filled, got peak %d", gateway.peakAll)
	}

	firstStarted := map[string]bool{}
	for _, input := range gateway.inputs[:3] {
		firstStarted[input.DeliveryID] = true
	}
	if !firstStarted["a0"] || !firstStarted["b0"] || !firstStarted["c0"] {
		t.Fatalf("expected a0, b0 and c0 to start first, got %+v", firstStarted)
	}
}

func TestDispatchWebhookDeliveriesUseCaseDefersRowsPastLeaseWindow(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	repo := &fakeDeliveryRepository{claimed: []dto.ClaimedWebhookDelivery{
		claimedDelivery("a0", "sub-a", 0),
		claimedDelivery("a1", "sub-a", 0),
	}}
	gateway := &fakeWebhookEventGateway{delay: 150 * time.Millisecond}
	useCase := NewDispatchWebhookDeliveriesUseCase(repo, gateway)

	command := dispatchCommand(now)
	command.LeaseDuration = 100 * time.Millisecond
	command.MaxInFlightPerSubscription = 1
	output, appErr := useCase.Execute(context.Background(), command)
	if appErr != nil {
		t.Fatalf("expected no error, got %+v", appErr)
	}
	if output.Claimed != 2 || output.Sent != 1 || output.Deferred != 1 {
		t.Fatalf("expected one sent and one deferred, got %+v", output)
	}
	if len(gateway.inputs) != 1 || gateway.inputs[0].DeliveryID != "a0" {
		t.Fatalf("expected only a0 to be attempted, got %+v", gateway.inputs)
	}
	if len(repo.delivered) != 1 {
		t.Fatalf("expected the deferred row to keep its lease, got delivered %+v", repo.delivered)
	}
}

func TestDeliveryLanesInterleavesSubscriptions(t *testing.T) {
	rows := []dto.ClaimedWebhookDelivery{
		claimedDelivery("a0", "sub-a", 0),
		claimedDelivery("a1", "sub-a", 0),
		claimedDelivery("a2", "sub-a", 0),
		claimedDelivery("b0", "sub-b", 0),
	}

	lanes := deliveryLanes(rows, 2)
	got := fmt.Sprint(lanes)
	if got != "[[0 2] [3] [1]]" {
		t.Fatalf("unexpected lanes %s", got)
	}
}
