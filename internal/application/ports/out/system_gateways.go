package out

import (
	"context"

	"taskflow/internal/application/dto"
	apperrors "taskflow/internal/shared_kernel/errors"
)

// PersistenceBootstrapGateway is implemented by every storage driver; drivers without
// a schema treat both calls as no-ops.
type PersistenceBootstrapGateway interface {
	CheckReadiness(ctx context.Context) *apperrors.AppError
	RunMigrations(ctx context.Context) *apperrors.AppError
}

type OpenAPISpecReadModel interface {
	Read(ctx context.Context) (dto.OpenAPISpecOutput, *apperrors.AppError)
}
