package http

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const verifyPath = "/internal/auth/verify"

var (
	errUnsupportedScheme = stderrors.New("scheme must be http or https")
	errMissingHost       = stderrors.New("host is required")
)

type CredentialVerifier struct {
	endpoint string
	client   *nethttp.Client
}

var _ portsout.CredentialVerifier = (*CredentialVerifier)(nil)

type verifyRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type verifyResponse struct {
	UserID string `json:"user_id"`
}

func NewCredentialVerifier(cfg Config) (*CredentialVerifier, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &CredentialVerifier{
		endpoint: baseURL.JoinPath(verifyPath).String(),
		client:   newClient(cfg.Timeout),
	}, nil
}

// VerifyCredentials maps 401/403/404 from the user service to invalid_credentials.
func (v *CredentialVerifier) VerifyCredentials(
	ctx context.Context,
	login string,
	password string,
) (string, *apperrors.AppError) {
	payload, err := json.Marshal(verifyRequest{Login: login, Password: password})
	if err != nil {
		return "", apperrors.NewInternal(
			"upstream_request_build_failed",
			"failed to encode credential verification request",
			map[string]any{"error": err.Error()},
		)
	}

	request, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, v.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.NewInternal(
			"upstream_request_build_failed",
			"failed to build credential verification request",
			map[string]any{"error": err.Error()},
		)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := v.client.Do(request)
	if err != nil {
		return "", apperrors.NewUpstream(
			"upstream_unavailable",
			"credential verification service is unavailable",
			map[string]any{"error": urlErrorText(err)},
		)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == nethttp.StatusUnauthorized,
		response.StatusCode == nethttp.StatusForbidden,
		response.StatusCode == nethttp.StatusNotFound:
		return "", apperrors.NewUnauthorized("invalid_credentials", "login or password is incorrect", nil)
	case response.StatusCode < 200 || response.StatusCode > 299:
		return "", apperrors.NewUpstream(
			"upstream_unavailable",
			"credential verification service returned an error",
			map[string]any{"status_code": response.StatusCode},
		)
	}

	decoded := verifyResponse{}
	if err := json.NewDecoder(io.LimitReader(response.Body, 1<<20)).Decode(&decoded); err != nil {
		return "", apperrors.NewUpstream(
			"upstream_invalid_response",
			"credential verification response is not valid json",
			map[string]any{"error": err.Error()},
		)
	}
	userID := strings.TrimSpace(decoded.UserID)
	if userID == "" {
		return "", apperrors.NewUpstream(
			"upstream_invalid_response",
			"credential verification response has no user id",
			nil,
		)
	}
	return userID, nil
}

func urlErrorText(err error) string {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
