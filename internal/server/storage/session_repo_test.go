package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/gestionhq/gestion-backend/internal/testutil"
	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/gestionhq/gestion-backend/pkg/utils"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()

	user := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail(), models.RoleUser)
	defer tdb.DeleteTestUser(ctx, user.ID)

	hash := utils.HashCredential("session-credential-" + user.ID.String())
	session := &models.Session{
		UserID:         user.ID,
		CredentialHash: hash,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
		IPAddress:      "1.2.3.4",
		UserAgent:      "test-agent",
	}
	if err := repos.Sessions.Create(ctx, session); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if !session.Active {
		t.Error("New sessions should be active")
	}

	found, err := repos.Sessions.GetActiveByHash(ctx, hash)
	if err != nil {
		t.Fatalf("GetActiveByHash failed: %v", err)
	}
	if found == nil || found.ID != session.ID {
		t.Fatalf("Expected to find the created session, got %+v", found)
	}

	// Deactivation revokes lookup but keeps the row for the audit trail.
	if err := repos.Sessions.DeactivateByHash(ctx, hash); err != nil {
		t.Fatalf("DeactivateByHash failed: %v", err)
	}

	found, err = repos.Sessions.GetActiveByHash(ctx, hash)
	if err != nil {
		t.Fatalf("GetActiveByHash failed: %v", err)
	}
	if found != nil {
		t.Error("Deactivated session should not be returned")
	}

	sessions, err := repos.Sessions.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("Expected 1 listed session, got %d", len(sessions))
	}
}

func TestSessionRepository_DeactivateExpired(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()

	user := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail(), models.RoleUser)
	defer tdb.DeleteTestUser(ctx, user.ID)

	expiredHash := utils.HashCredential("expired-" + user.ID.String())
	liveHash := utils.HashCredential("live-" + user.ID.String())

	expired := &models.Session{
		UserID:         user.ID,
		CredentialHash: expiredHash,
		ExpiresAt:      time.Now().Add(-time.Minute),
	}
	live := &models.Session{
		UserID:         user.ID,
		CredentialHash: liveHash,
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}
	for _, s := range []*models.Session{expired, live} {
		if err := repos.Sessions.Create(ctx, s); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	deactivated, err := repos.Sessions.DeactivateExpired(ctx)
	if err != nil {
		t.Fatalf("DeactivateExpired failed: %v", err)
	}
	if deactivated < 1 {
		t.Errorf("Expected at least 1 deactivated session, got %d", deactivated)
	}

	found, err := repos.Sessions.GetActiveByHash(ctx, liveHash)
	if err != nil {
		t.Fatalf("GetActiveByHash failed: %v", err)
	}
	if found == nil {
		t.Error("Unexpired session should survive the sweep")
	}
}
