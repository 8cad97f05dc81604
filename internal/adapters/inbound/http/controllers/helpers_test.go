//go:build !integration

package controllers

import (
	"net/http"

	"taskflow/internal/adapters/inbound/http/middleware"
	"taskflow/internal/application/dto"
)

func authenticated(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), dto.Principal{
		UserID:  userID,
		TokenID: "tok-" + userID,
	}))
}
