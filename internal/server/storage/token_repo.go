package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/google/uuid"
)

type TokenRepository struct {
	db *DB
}

func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *models.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (usuario_id, token, tipo, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		token.UserID, token.Code, token.Purpose, token.ExpiresAt, token.IPAddress, token.UserAgent,
	).Scan(&token.ID, &token.CreatedAt)
}

// GetValidByCode looks up an unconsumed, unexpired token by code. The lookup
// is code-first (not user-scoped); the caller cross-checks the owning user's
// email before consuming.
func (r *TokenRepository) GetValidByCode(ctx context.Context, code string, purpose models.TokenPurpose) (*models.AuthToken, error) {
	var token models.AuthToken
	query := `
		SELECT * FROM auth_tokens
		WHERE token = $1 AND tipo = $2 AND usado = false AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &token, query, code, purpose)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// ConsumeIfUnused marks the token used iff it is still unused. The usado
// precondition makes the consume a conditional update: under concurrent
// verification attempts the store lets at most one caller observe true.
func (r *TokenRepository) ConsumeIfUnused(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE auth_tokens SET usado = true WHERE id = $1 AND usado = false`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// InvalidateUserTokens consumes all outstanding tokens of the given purpose
// for a user. Called on issuance so a new code supersedes prior ones.
func (r *TokenRepository) InvalidateUserTokens(ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose) (int64, error) {
	query := `UPDATE auth_tokens SET usado = true WHERE usuario_id = $1 AND tipo = $2 AND usado = false`
	res, err := r.db.ExecContext(ctx, query, userID, purpose)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes all tokens past their expiry, consumed or not.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM auth_tokens WHERE expires_at < NOW()`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
