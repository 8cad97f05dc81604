package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type RevokeTokenUseCase interface {
	Execute(ctx context.Context, command dto.RevokeTokenCommand) *apperrors.AppError
}
