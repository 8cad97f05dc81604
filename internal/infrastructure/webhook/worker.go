package webhook

import (
	"context"
	"log"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
)

type WorkerConfig struct {
	Enabled                    bool
	PollInterval               time.Duration
	BatchSize                  int
	WorkerID                   string
	LeaseDuration              time.Duration
	MaxInFlight                int
	MaxInFlightPerSubscription int
	RetrySchedule              []time.Duration
}

type CycleObserver interface {
	ObserveDispatchCycle(output dto.DispatchWebhookDeliveriesOutput, failed bool, elapsed time.Duration)
}

type Worker struct {
	cfg             WorkerConfig
	dispatchUseCase portsin.DispatchWebhookDeliveriesUseCase
	observer        CycleObserver
	logger          *log.Logger
}

func NewWorker(
	cfg WorkerConfig,
	dispatchUseCase portsin.DispatchWebhookDeliveriesUseCase,
	observer CycleObserver,
	logger *log.Logger,
) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Worker{
		cfg:             cfg,
		dispatchUseCase: dispatchUseCase,
		observer:        observer,
		logger:          logger,
	}
}

func (w *Worker) Enabled() bool {
	return w != nil && w.cfg.Enabled
}

// Start polls until ctx is done. Attempts already in flight finish inside the
// cycle that started them.
func (w *Worker) Start(ctx context.Context) {
	if w == nil || !w.cfg.Enabled || w.dispatchUseCase == nil {
		return
	}

	w.logf(
		"webhook dispatcher started worker_id=%s poll_interval=%s batch_size=%d lease_duration=%s max_in_flight=%d max_in_flight_per_subscription=%d",
		w.cfg.WorkerID,
		w.cfg.PollInterval,
		w.cfg.BatchSize,
		w.cfg.LeaseDuration,
		w.cfg.MaxInFlight,
		w.cfg.MaxInFlightPerSubscription,
	)

	w.runCycle(ctx)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logf("webhook dispatcher stopped worker_id=%s", w.cfg.WorkerID)
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	startedAt := time.Now().UTC()
	output, appErr := w.dispatchUseCase.Execute(ctx, dto.DispatchWebhookDeliveriesCommand{
		Now:                        startedAt,
		BatchSize:                  w.cfg.BatchSize,
		WorkerID:                   w.cfg.WorkerID,
		LeaseDuration:              w.cfg.LeaseDuration,
		MaxInFlight:                w.cfg.MaxInFlight,
		MaxInFlightPerSubscription: w.cfg.MaxInFlightPerSubscription,
		RetrySchedule:              w.cfg.RetrySchedule,
	})
	elapsed := time.Since(startedAt)
	if w.observer != nil {
		w.observer.ObserveDispatchCycle(output, appErr != nil, elapsed)
	}
	if appErr != nil {
		w.logf(
			"webhook dispatch cycle failed code=%s message=%s details=%v",
			appErr.Code,
			appErr.Message,
			appErr.Details,
		)
		return
	}
	if output.Claimed == 0 {
		return
	}

	w.logf(
		"webhook dispatch cycle completed worker_id=%s claimed=%d sent=%d retried=%d failed=%d skipped=%d deferred=%d errors=%d http_2xx=%d http_4xx=%d http_5xx=%d network_error=%d latency_ms=%d",
		w.cfg.WorkerID,
		output.Claimed,
		output.Sent,
		output.Retried,
		output.Failed,
		output.Skipped,
		output.Deferred,
		output.Errors,
		output.HTTP2xxCount,
		output.HTTP4xxCount,
		output.HTTP5xxCount,
		output.NetworkErrorCount,
		elapsed.Milliseconds(),
	)
}

func (w *Worker) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Printf(format, args...)
}
