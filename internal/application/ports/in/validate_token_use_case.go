package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type ValidateTokenUseCase interface {
	Execute(ctx context.Context, query dto.ValidateTokenQuery) (dto.Principal, *apperrors.AppError)
}
