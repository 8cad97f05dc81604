package out

import (
	"context"

	"taskflow/internal/application/dto"
)

// DomainEventPublisher enqueues without blocking; implementations must not fail the caller.
type DomainEventPublisher interface {
	Publish(ctx context.Context, event dto.DomainEvent)
}
