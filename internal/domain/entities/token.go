package entities

import "time"

type TokenState string

const (
	TokenStateActive  TokenState = "active"
	TokenStateExpired TokenState = "expired"
	TokenStateRevoked TokenState = "revoked"
)

// Token is an issued bearer credential. Only the hash of the opaque value is kept.
type Token struct {
	ID        string
	Hash      string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func NewToken(id, hash, userID string, issuedAt time.Time, ttl time.Duration) Token {
	issuedAt = issuedAt.UTC()
	return Token{
		ID:        id,
		Hash:      hash,
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(ttl),
	}
}

func (t Token) Revoked() bool {
	return t.RevokedAt != nil
}

// StateAt reports revocation before expiry so a revoked token never reads as merely expired.
func (t Token) StateAt(now time.Time) TokenState {
	if t.Revoked() {
		return TokenStateRevoked
	}
	if !now.Before(t.ExpiresAt) {
		return TokenStateExpired
	}
	return TokenStateActive
}
