package use_cases

import (
	"context"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type validateTokenUseCase struct {
	repository portsout.TokenRepository
	generator  portsout.CredentialGenerator
	clock      Clock
}

func NewValidateTokenUseCase(
	repository portsout.TokenRepository,
	generator portsout.CredentialGenerator,
	clock Clock,
) portsin.ValidateTokenUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &validateTokenUseCase{
		repository: repository,
		generator:  generator,
		clock:      clock,
	}
}

func (u *validateTokenUseCase) Execute(ctx context.Context, query dto.ValidateTokenQuery) (dto.Principal, *apperrors.AppError) {
	if u.repository == nil || u.generator == nil {
		return dto.Principal{}, apperrors.NewInternal(
			"token_store_not_configured",
			"token store is not configured",
			nil,
		)
	}

	rawToken := strings.TrimSpace(query.Token)
	if rawToken == "" {
		return dto.Principal{}, invalidTokenError()
	}

	token, found, appErr := u.repository.FindByHash(ctx, u.generator.HashToken(rawToken))
	if appErr != nil {
		return dto.Principal{}, appErr
	}
	if !found {
		return dto.Principal{}, invalidTokenError()
	}

	switch token.StateAt(u.clock.NowUTC()) {
	case entities.TokenStateRevoked:
		return dto.Principal{}, apperrors.NewUnauthorized(
			"revoked_token",
			"bearer token has been revoked",
			nil,
		)
	case entities.TokenStateExpired:
		return dto.Principal{}, apperrors.NewUnauthorized(
			"expired_token",
			"bearer token has expired",
			map[string]any{"expired_at": token.ExpiresAt},
		)
	}

	return dto.Principal{
		UserID:    token.UserID,
		TokenID:   token.ID,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

func invalidTokenError() *apperrors.AppError {
	return apperrors.NewUnauthorized(
		"invalid_token",
		"bearer token is invalid",
		nil,
	)
}
