package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/gestionhq/gestion-backend/internal/testutil"
	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/google/uuid"
)

func TestTokenRepository_Lifecycle(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()

	user := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail(), models.RoleUser)
	defer tdb.DeleteTestUser(ctx, user.ID)

	token := &models.AuthToken{
		UserID:    user.ID,
		Code:      "123456",
		Purpose:   models.TokenPurposeLogin,
		ExpiresAt: time.Now().Add(15 * time.Minute),
		IPAddress: "1.2.3.4",
		UserAgent: "test-agent",
	}
	if err := repos.Tokens.Create(ctx, token); err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}
	if token.ID == uuid.Nil {
		t.Fatal("Create should populate the token ID")
	}

	// The code is discoverable while unconsumed and unexpired.
	found, err := repos.Tokens.GetValidByCode(ctx, "123456", models.TokenPurposeLogin)
	if err != nil {
		t.Fatalf("GetValidByCode failed: %v", err)
	}
	if found == nil || found.ID != token.ID {
		t.Fatalf("Expected to find the created token, got %+v", found)
	}

	// First consume wins, second reports false.
	consumed, err := repos.Tokens.ConsumeIfUnused(ctx, token.ID)
	if err != nil {
		t.Fatalf("ConsumeIfUnused failed: %v", err)
	}
	if !consumed {
		t.Fatal("Expected first consume to succeed")
	}

	consumed, err = repos.Tokens.ConsumeIfUnused(ctx, token.ID)
	if err != nil {
		t.Fatalf("Second ConsumeIfUnused failed: %v", err)
	}
	if consumed {
		t.Error("Expected second consume to report false")
	}

	// A consumed code is no longer discoverable.
	found, err = repos.Tokens.GetValidByCode(ctx, "123456", models.TokenPurposeLogin)
	if err != nil {
		t.Fatalf("GetValidByCode failed: %v", err)
	}
	if found != nil {
		t.Error("Consumed token should not be returned")
	}
}

func TestTokenRepository_InvalidateUserTokens(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()

	user := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail(), models.RoleUser)
	defer tdb.DeleteTestUser(ctx, user.ID)

	for _, code := range []string{"111111", "222222"} {
		token := &models.AuthToken{
			UserID:    user.ID,
			Code:      code,
			Purpose:   models.TokenPurposeLogin,
			ExpiresAt: time.Now().Add(15 * time.Minute),
		}
		if err := repos.Tokens.Create(ctx, token); err != nil {
			t.Fatalf("Failed to create token %s: %v", code, err)
		}
	}

	invalidated, err := repos.Tokens.InvalidateUserTokens(ctx, user.ID, models.TokenPurposeLogin)
	if err != nil {
		t.Fatalf("InvalidateUserTokens failed: %v", err)
	}
	if invalidated != 2 {
		t.Errorf("Expected 2 invalidated tokens, got %d", invalidated)
	}

	for _, code := range []string{"111111", "222222"} {
		found, err := repos.Tokens.GetValidByCode(ctx, code, models.TokenPurposeLogin)
		if err != nil {
			t.Fatalf("GetValidByCode failed: %v", err)
		}
		if found != nil {
			t.Errorf("Invalidated code %s should not be returned", code)
		}
	}
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	tdb := testutil.GetTestDB(t)
	if tdb == nil {
		return
	}
	defer tdb.Close()

	ctx := context.Background()
	repos := tdb.Repositories()

	user := tdb.CreateTestUser(ctx, testutil.GenerateTestEmail(), models.RoleUser)
	defer tdb.DeleteTestUser(ctx, user.ID)

	expired := &models.AuthToken{
		UserID:    user.ID,
		Code:      "333333",
		Purpose:   models.TokenPurposeLogin,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	live := &models.AuthToken{
		UserID:    user.ID,
		Code:      "444444",
		Purpose:   models.TokenPurposeLogin,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}
	for _, token := range []*models.AuthToken{expired, live} {
		if err := repos.Tokens.Create(ctx, token); err != nil {
			t.Fatalf("Failed to create token: %v", err)
		}
	}

	deleted, err := repos.Tokens.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted < 1 {
		t.Errorf("Expected at least 1 deleted token, got %d", deleted)
	}

	found, err := repos.Tokens.GetValidByCode(ctx, "444444", models.TokenPurposeLogin)
	if err != nil {
		t.Fatalf("GetValidByCode failed: %v", err)
	}
	if found == nil {
		t.Error("Unexpired token should survive the sweep")
	}
}
