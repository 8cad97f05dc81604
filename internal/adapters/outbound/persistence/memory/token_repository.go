package memory

import (
	"context"
	"sync"
	"time"

	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	apperrors "taskflow/internal/shared_kernel/errors"
)

// TokenRepository keeps tokens keyed by hash. Revocation takes the write lock,
// so a revoked token is never served to a later FindByHash.
type TokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]entities.Token
}

var _ portsout.TokenRepository = (*TokenRepository)(nil)

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: map[string]entities.Token{}}
}

func (r *TokenRepository) Create(_ context.Context, token entities.Token) *apperrors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[token.Hash]; exists {
		return apperrors.NewConflict(
			"token_conflict",
			"token hash already exists",
			map[string]any{"token_id": token.ID},
		)
	}
	r.tokens[token.Hash] = token
	return nil
}

func (r *TokenRepository) FindByHash(_ context.Context, hash string) (entities.Token, bool, *apperrors.AppError) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[hash]
	return token, ok, nil
}

func (r *TokenRepository) RevokeByHash(_ context.Context, hash string, revokedAt time.Time) (bool, *apperrors.AppError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[hash]
	if !ok || token.RevokedAt != nil {
		return false, nil
	}
	revokedAt = revokedAt.UTC()
	token.RevokedAt = &revokedAt
	r.tokens[hash] = token
	return true, nil
}
