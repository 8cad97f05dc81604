package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type CheckRateLimitUseCase interface {
	Execute(ctx context.Context, command dto.CheckRateLimitCommand) (dto.RateLimitDecision, *apperrors.AppError)
}
