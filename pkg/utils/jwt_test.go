package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var testSecret = []byte("jwt-test-secret-0123456789abcdef")

func testUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		FirstName: "Ana",
		LastName:  "García",
		Email:     "ana@example.com",
		Role:      models.RoleEditor,
		Active:    true,
	}
}

func TestGenerateAndValidateJWT(t *testing.T) {
	user := testUser()

	token, err := GenerateJWT(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("Expected user ID %s, got %s", user.ID, claims.UserID)
	}
	if claims.Email != user.Email {
		t.Errorf("Expected email %s, got %s", user.Email, claims.Email)
	}
	if claims.FirstName != "Ana" || claims.LastName != "García" {
		t.Errorf("Unexpected name in claims: %s %s", claims.FirstName, claims.LastName)
	}
	if claims.Role != string(models.RoleEditor) {
		t.Errorf("Expected role %s, got %s", models.RoleEditor, claims.Role)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	if _, err := ValidateJWT(token, []byte("another-secret-0123456789abcdef!")); err == nil {
		t.Error("Expected validation to fail with a different secret")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	token, err := GenerateJWT(testUser(), testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	_, err = ValidateJWT(token, testSecret)
	if err == nil {
		t.Fatal("Expected validation of an expired token to fail")
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("Expected jwt.ErrTokenExpired, got %v", err)
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	if _, err := ValidateJWT("not.a.token", testSecret); err == nil {
		t.Error("Expected validation of garbage input to fail")
	}
}

func TestValidateJWTRejectsUnsignedToken(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"email": "ana@example.com"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to build unsigned token: %v", err)
	}

	if _, err := ValidateJWT(token, testSecret); err == nil {
		t.Error("Expected validation to reject alg=none tokens")
	}
}
