package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/gestionhq/gestion-backend/pkg/utils"
)

func requestWithClaims(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	claims := &utils.Claims{Email: "ana@example.com", Role: role}
	ctx := context.WithValue(req.Context(), userClaimsKey, claims)
	return req.WithContext(ctx)
}

func TestRequireRoles_AllowsListedRole(t *testing.T) {
	rec := httptest.NewRecorder()
	nextCalled := false
	handler := RequireRoles(models.RoleAdmin, models.RoleEditor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(rec, requestWithClaims(string(models.RoleEditor)))

	if !nextCalled {
		t.Fatal("expected next handler to run for listed role")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 status, got %d", rec.Code)
	}
}

func TestRequireRoles_RejectsUnlistedRole(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := RequireRoles(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected call to next handler")
	}))

	handler.ServeHTTP(rec, requestWithClaims(string(models.RoleUser)))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 status, got %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != codeInsufficientPerms {
		t.Errorf("expected code %s, got %s", codeInsufficientPerms, got)
	}
}

func TestRequireRoles_RejectsUnknownRoleString(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := RequireRoles(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected call to next handler")
	}))

	handler.ServeHTTP(rec, requestWithClaims("Superusuario"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 status, got %d", rec.Code)
	}
}

func TestRequireRoles_RejectsMissingClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	handler := RequireRoles(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unexpected call to next handler")
	}))

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 status, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"", "", false},
		{"abc123", "", false},
		{"Basic abc123", "", false},
		{"Bearer", "", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		token, ok := bearerToken(req)
		if ok != tt.ok || token != tt.token {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, token, ok, tt.token, tt.ok)
		}
	}
}
