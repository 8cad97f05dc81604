// Package credentials mints opaque bearer tokens and webhook secrets.
package credentials

import (
	cryptorand "crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"

	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"

	"golang.org/x/crypto/sha3"
)

const (
	TokenPrefix      = "tf_"
	SecretPrefix     = "whsec_"
	tokenByteLength  = 32
	secretByteLength = 24
)

type Generator struct {
	random io.Reader
}

var _ portsout.CredentialGenerator = (*Generator)(nil)

func NewGenerator() *Generator {
	return &Generator{random: cryptorand.Reader}
}

// NewToken returns tf_ followed by 32 random bytes in unpadded base64url.
func (g *Generator) NewToken() (string, *apperrors.AppError) {
	raw, appErr := g.read(tokenByteLength, "token_generation_failed")
	if appErr != nil {
		return "", appErr
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

func (g *Generator) NewSecret() (string, *apperrors.AppError) {
	raw, appErr := g.read(secretByteLength, "webhook_secret_generation_failed")
	if appErr != nil {
		return "", appErr
	}
	return SecretPrefix + hex.EncodeToString(raw), nil
}

// HashToken is the at-rest form of a token: hex SHA3-256 of the full string.
func (g *Generator) HashToken(token string) string {
	sum := sha3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (g *Generator) read(length int, code string) ([]byte, *apperrors.AppError) {
	raw := make([]byte, length)
	if _, err := io.ReadFull(g.random, raw); err != nil {
		return nil, apperrors.NewInternal(
			code,
			"failed to read random bytes",
			map[string]any{"error": err.Error()},
		)
	}
	return raw, nil
}
