package memory

import (
	"context"

	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

// BootstrapGateway satisfies the persistence bootstrap port when nothing needs
// migrating.
type BootstrapGateway struct{}

var _ portsout.PersistenceBootstrapGateway = BootstrapGateway{}

func (BootstrapGateway) CheckReadiness(context.Context) *apperrors.AppError {
	return nil
}

func (BootstrapGateway) RunMigrations(context.Context) *apperrors.AppError {
	return nil
}
