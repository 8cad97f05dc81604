//go:build !integration

package webhook

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

func TestWorkerDisabled(t *testing.T) {
	fakeUseCase := &fakeDispatchUseCase{}
	worker := NewWorker(WorkerConfig{
		Enabled:      false,
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
		WorkerID:     "worker-a",
	}, fakeUseCase, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	worker.Start(ctx)

	if worker.Enabled() {
		t.Fatalf("expected worker disabled")
	}
	if fakeUseCase.calls() != 0 {
		t.Fatalf("expected no calls for disabled worker, got %d", fakeUseCase.calls())
	}
}

func TestWorkerRunsCycleWithDispatchConfig(t *testing.T) {
	fakeUseCase := &fakeDispatchUseCase{output: dto.DispatchWebhookDeliveriesOutput{Claimed: 1, Sent: 1}}
	observer := &fakeCycleObserver{}
	schedule := []time.Duration{time.Minute, 5 * time.Minute}
	worker := NewWorker(WorkerConfig{
		Enabled:                    true,
		PollInterval:               10 * time.Millisecond,
		BatchSize:                  10,
		WorkerID:                   "worker-a",
		LeaseDuration:              30 * time.Second,
		MaxInFlight:                8,
		MaxInFlightPerSubscription: 2,
		RetrySchedule:              schedule,
	}, fakeUseCase, observer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	worker.Start(ctx)

	if fakeUseCase.calls() == 0 {
		t.Fatalf("expected at least one cycle call")
	}
	last := fakeUseCase.lastCommand()
	if last.WorkerID != "worker-a" || last.BatchSize != 10 {
		t.Fatalf("unexpected command %+v", last)
	}
	if last.LeaseDuration != 30*time.Second {
		t.Fatalf("expected lease duration 30s, got %s", last.LeaseDuration)
	}
	if last.MaxInFlight != 8 || last.MaxInFlightPerSubscription != 2 {
		t.Fatalf("expected in-flight bounds 8/2, got %d/%d", last.MaxInFlight, last.MaxInFlightPerSubscription)
	}
	if len(last.RetrySchedule) != 2 || last.RetrySchedule[1] != 5*time.Minute {
		t.Fatalf("expected retry schedule forwarded, got %v", last.RetrySchedule)
	}
	if last.Now.IsZero() {
		t.Fatalf("expected cycle timestamp")
	}
	if observer.cycles() != fakeUseCase.calls() {
		t.Fatalf("expected every cycle observed, got %d of %d", observer.cycles(), fakeUseCase.calls())
	}
}

func TestWorkerReportsFailedCycle(t *testing.T) {
	fakeUseCase := &fakeDispatchUseCase{err: apperrors.NewInternal("webhook_delivery_query_failed", "boom", nil)}
	observer := &fakeCycleObserver{}
	worker := NewWorker(WorkerConfig{Enabled: true, PollInterval: time.Hour, BatchSize: 1, WorkerID: "w"}, fakeUseCase, observer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	worker.Start(ctx)

	if observer.failedCycles() != 1 {
		t.Fatalf("expected one failed cycle, got %d", observer.failedCycles())
	}
}

type fakeDispatchUseCase struct {
	mu        sync.Mutex
	callCount int
	last      dto.DispatchWebhookDeliveriesCommand
	output    dto.DispatchWebhookDeliveriesOutput
	err       *apperrors.AppError
}

func (f *fakeDispatchUseCase) Execute(
	_ context.Context,
	command dto.DispatchWebhookDeliveriesCommand,
) (dto.DispatchWebhookDeliveriesOutput, *apperrors.AppError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount++
	f.last = command
	return f.output, f.err
}

func (f *fakeDispatchUseCase) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

func (f *fakeDispatchUseCase) lastCommand() dto.DispatchWebhookDeliveriesCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

type fakeCycleObserver struct {
	mu     sync.Mutex
	total  int
	failed int
}

func (f *fakeCycleObserver) ObserveDispatchCycle(_ dto.DispatchWebhookDeliveriesOutput, failed bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total++
	if failed {
		f.failed++
	}
}

func (f *fakeCycleObserver) cycles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

func (f *fakeCycleObserver) failedCycles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}
