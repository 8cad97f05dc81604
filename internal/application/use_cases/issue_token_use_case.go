package use_cases

import (
	"context"
	"strings"
	"time"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	apperrors "taskflow/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	tokenTypeBearer = "Bearer"
)

type issueTokenUseCase struct {
	repository portsout.TokenRepository
	generator  portsout.CredentialGenerator
	clock      Clock
	ttl        time.Duration
}

func NewIssueTokenUseCase(
	repository portsout.TokenRepository,
	generator portsout.CredentialGenerator,
	clock Clock,
	ttl time.Duration,
) portsin.IssueTokenUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &issueTokenUseCase{
		repository: repository,
		generator:  generator,
		clock:      clock,
		ttl:        ttl,
	}
}

func (u *issueTokenUseCase) Execute(ctx context.Context, command dto.IssueTokenCommand) (dto.IssuedToken, *apperrors.AppError) {
	if u.repository == nil {
		return dto.IssuedToken{}, apperrors.NewInternal(
			"token_repository_missing",
			"token repository is required",
			nil,
		)
	}
	if u.generator == nil {
		return dto.IssuedToken{}, apperrors.NewInternal(
			"credential_generator_missing",
			"credential generator is required",
			nil,
		)
	}

	userID := strings.TrimSpace(command.UserID)
	if userID == "" {
		return dto.IssuedToken{}, apperrors.NewValidation(
			"invalid_request",
			"user_id is required",
			map[string]any{"field": "user_id"},
		)
	}

	rawToken, appErr := u.generator.NewToken()
	if appErr != nil {
		return dto.IssuedToken{}, appErr
	}

	token := entities.NewToken(
		uuid.NewString(),
		u.generator.HashToken(rawToken),
		userID,
		u.clock.NowUTC(),
		u.ttl,
	)
	if appErr := u.repository.Create(ctx, token); appErr != nil {
		return dto.IssuedToken{}, appErr
	}

	return dto.IssuedToken{
		Token:     rawToken,
		TokenID:   token.ID,
		UserID:    token.UserID,
		TokenType: tokenTypeBearer,
		IssuedAt:  token.IssuedAt,
		ExpiresAt: token.ExpiresAt,
	}, nil
}
