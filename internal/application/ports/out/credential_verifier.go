package out

import (
	"context"

	apperrors "taskflow/internal/shared_kernel/errors"
)

type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, login string, password string) (string, *apperrors.AppError)
}
