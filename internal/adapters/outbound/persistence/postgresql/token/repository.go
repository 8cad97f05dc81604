package token

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	portsout "taskflow/internal/application/ports/out"
	"taskflow/internal/domain/entities"
	apperrors "taskflow/internal/shared_kernel/errors"
)

type Repository struct {
	db *sql.DB
}

var _ portsout.TokenRepository = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, token entities.Token) *apperrors.AppError {
	const query = `
INSERT INTO app.auth_tokens (id, token_hash, user_id, issued_at, expires_at, revoked_at)
VALUES ($1, $2, $3, $4, $5, NULL)
`
	_, err := r.db.ExecContext(
		ctx,
		query,
		token.ID,
		token.Hash,
		token.UserID,
		token.IssuedAt.UTC(),
		token.ExpiresAt.UTC(),
	)
	if err != nil {
		return apperrors.NewInternal(
			"token_insert_failed",
			"failed to persist token",
			map[string]any{"error": err.Error(), "token_id": token.ID},
		)
	}
	return nil
}

func (r *Repository) FindByHash(ctx context.Context, hash string) (entities.Token, bool, *apperrors.AppError) {
	const query = `
SELECT id, token_hash, user_id, issued_at, expires_at, revoked_at
FROM app.auth_tokens
WHERE token_hash = $1
`

	var (
		token     entities.Token
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, hash).Scan(
		&token.ID,
		&token.Hash,
		&token.UserID,
		&token.IssuedAt,
		&token.ExpiresAt,
		&revokedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return entities.Token{}, false, nil
	}
	if err != nil {
		return entities.Token{}, false, apperrors.NewInternal(
			"token_query_failed",
			"failed to query token",
			map[string]any{"error": err.Error()},
		)
	}

	token.IssuedAt = token.IssuedAt.UTC()
	token.ExpiresAt = token.ExpiresAt.UTC()
	if revokedAt.Valid {
		value := revokedAt.Time.UTC()
		token.RevokedAt = &value
	}
	return token, true, nil
}

func (r *Repository) RevokeByHash(ctx context.Context, hash string, revokedAt time.Time) (bool, *apperrors.AppError) {
	const query = `
UPDATE app.auth_tokens
SET revoked_at = $2
WHERE token_hash = $1
  AND revoked_at IS NULL
`
	result, err := r.db.ExecContext(ctx, query, hash, revokedAt.UTC())
	if err != nil {
		return false, apperrors.NewInternal(
			"token_revoke_failed",
			"failed to revoke token",
			map[string]any{"error": err.Error()},
		)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternal(
			"token_revoke_failed",
			"failed to verify token revocation",
			map[string]any{"error": err.Error()},
		)
	}
	return rowsAffected == 1, nil
}
