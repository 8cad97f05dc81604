package out

import apperrors "taskflow/internal/shared_kernel/errors"

type CredentialGenerator interface {
	NewToken() (string, *apperrors.AppError)
	NewSecret() (string, *apperrors.AppError)
	HashToken(token string) string
}
