package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type FanOutDomainEventUseCase interface {
	Execute(ctx context.Context, event dto.DomainEvent) (dto.FanOutDomainEventOutput, *apperrors.AppError)
}
