package webhook

import (
	"context"
	"log"
	"sync"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
)

const (
	DefaultEventBuffer  = 1024
	defaultDrainTimeout = 5 * time.Second
)

type PublisherMetrics interface {
	EventPublished()
	EventDropped()
	DeliveriesEnqueued(count int)
}

// Publisher is the in-process domain event buffer. Publish never blocks; Run drains
// the buffer into fan-out on its own goroutine.
type Publisher struct {
	events       chan dto.DomainEvent
	fanOut       portsin.FanOutDomainEventUseCase
	metrics      PublisherMetrics
	logger       *log.Logger
	drainTimeout time.Duration
	// stateMu orders Publish against shutdown: sends hold the read lock, and the
	// final drain starts only after stopped is set under the write lock.
	stateMu sync.RWMutex
	stopped bool
}

var _ portsout.DomainEventPublisher = (*Publisher)(nil)

func NewPublisher(
	buffer int,
	fanOut portsin.FanOutDomainEventUseCase,
	metrics PublisherMetrics,
	logger *log.Logger,
) *Publisher {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Publisher{
		events:       make(chan dto.DomainEvent, buffer),
		fanOut:       fanOut,
		metrics:      metrics,
		logger:       logger,
		drainTimeout: defaultDrainTimeout,
	}
}

func (p *Publisher) Publish(_ context.Context, event dto.DomainEvent) {
	p.stateMu.RLock()
	if p.stopped {
		p.stateMu.RUnlock()
		p.drop(event, "publisher_stopped")
		return
	}
	accepted := false
	select {
	case p.events <- event:
		accepted = true
	default:
	}
	p.stateMu.RUnlock()

	if !accepted {
		p.drop(event, "buffer_full")
		return
	}
	if p.metrics != nil {
		p.metrics.EventPublished()
	}
}

// Run fans events out until ctx is done, then drains what is already buffered
// within the drain timeout.
func (p *Publisher) Run(ctx context.Context) {
	if p.fanOut == nil {
		p.logf("webhook publisher disabled reason=fan_out_missing")
		return
	}

	for {
		select {
		case <-ctx.Done():
			p.stop()
			p.drain()
			return
		case event := <-p.events:
			p.handle(ctx, event)
		}
	}
}

// Pending reports buffered events not yet fanned out.
func (p *Publisher) Pending() int {
	return len(p.events)
}

func (p *Publisher) stop() {
	p.stateMu.Lock()
	p.stopped = true
	p.stateMu.Unlock()
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), p.drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-p.events:
			p.handle(ctx, event)
		default:
			return
		}
	}
}

func (p *Publisher) handle(ctx context.Context, event dto.DomainEvent) {
	output, appErr := p.fanOut.Execute(ctx, event)
	if appErr != nil {
		p.logf(
			"webhook fan-out failed event_id=%s event_type=%s code=%s message=%s",
			event.ID,
			event.Type,
			appErr.Code,
			appErr.Message,
		)
		return
	}
	if p.metrics != nil {
		p.metrics.DeliveriesEnqueued(output.Enqueued)
	}
	if output.Matched > 0 {
		p.logf(
			"webhook fan-out completed event_id=%s event_type=%s matched=%d enqueued=%d",
			event.ID,
			event.Type,
			output.Matched,
			output.Enqueued,
		)
	}
}

func (p *Publisher) drop(event dto.DomainEvent, reason string) {
	if p.metrics != nil {
		p.metrics.EventDropped()
	}
	p.logf(
		"webhook event dropped event_id=%s event_type=%s reason=%s buffered=%d",
		event.ID,
		event.Type,
		reason,
		len(p.events),
	)
}

func (p *Publisher) logf(format string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Printf(format, args...)
}
