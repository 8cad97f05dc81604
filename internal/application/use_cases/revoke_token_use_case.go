package use_cases

import (
	"context"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type revokeTokenUseCase struct {
	repository portsout.TokenRepository
	generator  portsout.CredentialGenerator
	clock      Clock
}

func NewRevokeTokenUseCase(
	repository portsout.TokenRepository,
	generator portsout.CredentialGenerator,
	clock Clock,
) portsin.RevokeTokenUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &revokeTokenUseCase{
		repository: repository,
		generator:  generator,
		clock:      clock,
	}
}

// Execute is idempotent: unknown and already revoked tokens succeed without change.
func (u *revokeTokenUseCase) Execute(ctx context.Context, command dto.RevokeTokenCommand) *apperrors.AppError {
	if u.repository == nil || u.generator == nil {
		return apperrors.NewInternal(
			"token_store_not_configured",
			"token store is not configured",
			nil,
		)
	}

	rawToken := strings.TrimSpace(command.Token)
	if rawToken == "" {
		return apperrors.NewValidation(
			"invalid_request",
			"token is required",
			map[string]any{"field": "token"},
		)
	}

	_, appErr := u.repository.RevokeByHash(ctx, u.generator.HashToken(rawToken), u.clock.NowUTC())
	return appErr
}
