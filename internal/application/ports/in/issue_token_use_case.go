package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type IssueTokenUseCase interface {
	Execute(ctx context.Context, command dto.IssueTokenCommand) (dto.IssuedToken, *apperrors.AppError)
}
