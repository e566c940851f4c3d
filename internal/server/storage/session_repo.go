package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/google/uuid"
)

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sesiones (usuario_id, jwt_token_hash, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, activa, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		session.UserID, session.CredentialHash, session.ExpiresAt, session.IPAddress, session.UserAgent,
	).Scan(&session.ID, &session.Active, &session.CreatedAt)
}

// GetActiveByHash returns the active, unexpired session bound to a
// credential hash, or nil when none exists.
func (r *SessionRepository) GetActiveByHash(ctx context.Context, hash string) (*models.Session, error) {
	var session models.Session
	query := `
		SELECT * FROM sesiones
		WHERE jwt_token_hash = $1 AND activa = true AND expires_at > NOW()
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &session, query, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// DeactivateByHash revokes the session bound to a credential hash. Rows stay
// in place for the audit trail.
func (r *SessionRepository) DeactivateByHash(ctx context.Context, hash string) error {
	query := `UPDATE sesiones SET activa = false WHERE jwt_token_hash = $1`
	_, err := r.db.ExecContext(ctx, query, hash)
	return err
}

// DeactivateExpired flips activa off for all sessions past their expiry.
func (r *SessionRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	query := `UPDATE sesiones SET activa = false WHERE expires_at < NOW() AND activa = true`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns all sessions for a user, newest first. Used by the
// admin CLI for operator visibility.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	query := `SELECT * FROM sesiones WHERE usuario_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &sessions, query, userID)
	return sessions, err
}
