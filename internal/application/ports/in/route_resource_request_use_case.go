package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type RouteResourceRequestUseCase interface {
	Execute(ctx context.Context, command dto.RouteResourceCommand) (dto.ResourceResult, *apperrors.AppError)
}
