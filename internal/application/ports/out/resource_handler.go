package out

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type ResourceHandler interface {
	Handle(ctx context.Context, request dto.ResourceRequest) (dto.ResourceResult, *apperrors.AppError)
}
