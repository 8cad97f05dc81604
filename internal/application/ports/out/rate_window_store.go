package out

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

// RateWindowStore must make check-and-increment atomic per key.
type RateWindowStore interface {
	CheckAndIncrement(ctx context.Context, command dto.CheckRateLimitCommand) (dto.RateLimitDecision, *apperrors.AppError)
}
