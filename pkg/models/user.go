package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of roles known to the backend. Session claims carry
// the role as a plain string on the wire; it is parsed back into a Role at
// the API boundary so authorization checks never compare free-form strings.
type Role string

const (
	RoleAdmin  Role = "Administrador"
	RoleEditor Role = "Editor"
	RoleUser   Role = "Usuario"
)

// ParseRole maps a claim string to a known Role. Unknown values report false.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleUser:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	FirstName string     `json:"nombre" db:"nombre"`
	LastName  string     `json:"apellido" db:"apellido"`
	Email     string     `json:"email" db:"email"`
	Role      Role       `json:"rol" db:"rol"`
	Active    bool       `json:"activo" db:"activo"`
	LastLogin *time.Time `json:"ultimo_login,omitempty" db:"ultimo_login"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Summary is the minimal user projection returned on login and status checks.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	Email     string    `json:"email"`
	Role      Role      `json:"rol"`
}

// TokenPurpose classifies one-time tokens. Only login tokens exist today.
type TokenPurpose string

const TokenPurposeLogin TokenPurpose = "login"

// AuthToken is a single-use 6-digit login code delivered by email.
// At most one unconsumed token per (user, purpose) exists at a time: issuing
// a new one marks all prior unconsumed tokens of that purpose as used.
type AuthToken struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"usuario_id" db:"usuario_id"`
	Code      string       `json:"-" db:"token"`
	Purpose   TokenPurpose `json:"tipo" db:"tipo"`
	ExpiresAt time.Time    `json:"expires_at" db:"expires_at"`
	Used      bool         `json:"usado" db:"usado"`
	IPAddress string       `json:"ip_address" db:"ip_address"`
	UserAgent string       `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// Session is the revocation record for an issued session credential. The raw
// credential is never stored, only its SHA-256 hash. A session is valid while
// activa is true and expires_at is in the future. Rows are deactivated, never
// deleted, so the table doubles as a login audit trail.
type Session struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"usuario_id" db:"usuario_id"`
	CredentialHash string    `json:"-" db:"jwt_token_hash"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
	Active         bool      `json:"activa" db:"activa"`
	IPAddress      string    `json:"ip_address" db:"ip_address"`
	UserAgent      string    `json:"user_agent" db:"user_agent"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
