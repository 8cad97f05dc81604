package dto

import "time"

type IssueTokenCommand struct {
	UserID string
}

type IssuedToken struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"token_id"`
	UserID    string    `json:"user_id"`
	TokenType string    `json:"token_type"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ValidateTokenQuery struct {
	Token string
}

// Principal is the identity attached to a request that passed the Authenticated gate.
type Principal struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type RevokeTokenCommand struct {
	Token string
}

type LoginCommand struct {
	Login    string
	Password string
}
