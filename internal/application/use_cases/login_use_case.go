package use_cases

import (
	"context"
	"strings"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type loginUseCase struct {
	verifier   portsout.CredentialVerifier
	issueToken portsin.IssueTokenUseCase
}

func NewLoginUseCase(verifier portsout.CredentialVerifier, issueToken portsin.IssueTokenUseCase) portsin.LoginUseCase {
	return &loginUseCase{
		verifier:   verifier,
		issueToken: issueToken,
	}
}

func (u *loginUseCase) Execute(ctx context.Context, command dto.LoginCommand) (dto.IssuedToken, *apperrors.AppError) {
	if u.verifier == nil || u.issueToken == nil {
		return dto.IssuedToken{}, apperrors.NewInternal(
			"login_not_configured",
			"login is not configured",
			nil,
		)
	}

	login := strings.TrimSpace(command.Login)
	if login == "" {
		return dto.IssuedToken{}, apperrors.NewValidation(
			"invalid_request",
			"login is required",
			map[string]any{"field": "login"},
		)
	}
	if command.Password == "" {
		return dto.IssuedToken{}, apperrors.NewValidation(
			"invalid_request",
			"password is required",
			map[string]any{"field": "password"},
		)
	}

	userID, appErr := u.verifier.VerifyCredentials(ctx, login, command.Password)
	if appErr != nil {
		return dto.IssuedToken{}, appErr
	}

	return u.issueToken.Execute(ctx, dto.IssueTokenCommand{UserID: userID})
}
