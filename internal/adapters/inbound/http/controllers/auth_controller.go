package controllers

import (
	"log"
	"net/http"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"
	valueobjects "taskflow/internal/domain/value_objects"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type AuthController struct {
	loginUseCase  portsin.LoginUseCase
	revokeUseCase portsin.RevokeTokenUseCase
	logger        *log.Logger
}

type loginPayload struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func NewAuthController(
	loginUseCase portsin.LoginUseCase,
	revokeUseCase portsin.RevokeTokenUseCase,
	logger *log.Logger,
) *AuthController {
	return &AuthController{
		loginUseCase:  loginUseCase,
		revokeUseCase: revokeUseCase,
		logger:        logger,
	}
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if c.loginUseCase == nil {
		writeAppError(w, apperrors.NewInternal(
			"login_use_case_missing",
			"login use case is required",
			nil,
		))
		return
	}

	payload := loginPayload{}
	if appErr := decodeJSONBody(w, r, &payload, false); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.loginUseCase.Execute(r.Context(), dto.LoginCommand{
		Login:    payload.Login,
		Password: payload.Password,
	})
	if appErr != nil {
		if !appErr.Is(apperrors.TypeUnauthorized) && !appErr.Is(apperrors.TypeValidation) {
			logRequestError(c.logger, r.Method, "/v1/auth/login", appErr)
		}
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, output)
}

// Logout revokes the bearer token that authenticated the request.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if c.revokeUseCase == nil {
		writeAppError(w, apperrors.NewInternal(
			"revoke_token_use_case_missing",
			"revoke token use case is required",
			nil,
		))
		return
	}
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}

	rawToken, ok := valueobjects.ParseBearerAuthorization(r.Header.Get("Authorization"))
	if !ok {
		writeAppError(w, apperrors.NewUnauthorized("unauthorized", "a bearer token is required", nil))
		return
	}

	if appErr := c.revokeUseCase.Execute(r.Context(), dto.RevokeTokenCommand{Token: rawToken}); appErr != nil {
		logRequestError(c.logger, r.Method, "/v1/auth/logout", appErr)
		writeAppError(w, appErr)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
