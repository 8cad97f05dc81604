package in

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type AdmitRequestUseCase interface {
	Execute(ctx context.Context, command dto.AdmitRequestCommand) (dto.AdmissionOutput, *apperrors.AppError)
}
