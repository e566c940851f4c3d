package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/gestionhq/gestion-backend/internal/server/config"
	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/google/uuid"
)

// NewTestConfig returns an auth configuration suitable for tests: a
// throwaway signing secret and production-like windows. Tests that need
// already-expired state flip the TTLs negative.
func NewTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:     []byte("test-secret-key-0123456789abcdef"),
		TokenTTL:      15 * time.Minute,
		SessionTTL:    24 * time.Hour,
		RequestLimit:  3,
		VerifyLimit:   5,
		RateWindow:    15 * time.Minute,
		SendTimeout:   5 * time.Second,
		StoreTimeout:  5 * time.Second,
		SweepInterval: 10 * time.Minute,
	}
}

// CreateTestUser inserts a user row (with its role resolved by name) and
// returns the model.
func (tdb *TestDB) CreateTestUser(ctx context.Context, email string, role models.Role) *models.User {
	tdb.t.Helper()

	id := uuid.New()
	_, err := tdb.DB.ExecContext(ctx, `
		INSERT INTO usuarios (id, nombre, apellido, email, rol_id, activo)
		VALUES ($1, 'Test', 'User', $2, (SELECT id FROM roles WHERE nombre = $3), true)
	`, id, email, string(role))
	if err != nil {
		tdb.t.Fatalf("Failed to create test user: %v", err)
	}

	return &models.User{
		ID:        id,
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Role:      role,
		Active:    true,
	}
}

// DeleteTestUser removes a test user and its dependent auth rows.
func (tdb *TestDB) DeleteTestUser(ctx context.Context, userID uuid.UUID) {
	tdb.t.Helper()
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM auth_tokens WHERE usuario_id = $1", userID)
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM sesiones WHERE usuario_id = $1", userID)
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM usuarios WHERE id = $1", userID)
}

// GenerateTestEmail generates a unique test email
func GenerateTestEmail() string {
	return fmt.Sprintf("test-%s@example.com", uuid.New().String()[:8])
}
