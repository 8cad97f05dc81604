package out

import (
	"context"
	"time"

	"taskflow/internal/domain/entities"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type TokenRepository interface {
	Create(ctx context.Context, token entities.Token) *apperrors.AppError
	FindByHash(ctx context.Context, hash string) (entities.Token, bool, *apperrors.AppError)
	// RevokeByHash sets revoked_at once; later calls leave the first timestamp intact.
	RevokeByHash(ctx context.Context, hash string, revokedAt time.Time) (bool, *apperrors.AppError)
}
