package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/google/uuid"
)

// UserRepository is the auth core's read-side view of usuarios. Full user
// administration (create/update/delete) belongs to the CRUD layer; the core
// only looks users up and stamps ultimo_login.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	u.id, u.nombre, u.apellido, u.email, u.activo, u.ultimo_login, u.created_at,
	r.nombre AS rol
`

// GetActiveByEmail returns the active user with the given email,
// case-normalized, or nil when absent or inactive.
func (r *UserRepository) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `
		SELECT ` + userColumns + `
		FROM usuarios u
		JOIN roles r ON r.id = u.rol_id
		WHERE lower(u.email) = lower($1) AND u.activo = true
	`
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `
		SELECT ` + userColumns + `
		FROM usuarios u
		JOIN roles r ON r.id = u.rol_id
		WHERE u.id = $1 AND u.activo = true
	`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps ultimo_login on successful verification.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE usuarios SET ultimo_login = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
