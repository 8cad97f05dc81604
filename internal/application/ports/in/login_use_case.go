package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type LoginUseCase interface {
	Execute(ctx context.Context, command dto.LoginCommand) (dto.IssuedToken, *apperrors.AppError)
}
