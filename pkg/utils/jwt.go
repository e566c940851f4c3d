package utils

import (
	"fmt"
	"time"

	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by a session credential. Field names match the wire format
// consumed by the front end (nombre/apellido/rol).
type Claims struct {
	UserID    uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"nombre"`
	LastName  string    `json:"apellido"`
	Role      string    `json:"rol"`
	jwt.RegisteredClaims
}

// GenerateJWT mints a signed session credential for user, valid for the
// given duration. HS256 with a process-wide secret.
func GenerateJWT(user *models.User, secret []byte, expiration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateJWT verifies the signature and embedded expiry of a credential and
// returns its claims. Expired credentials fail with an error matching
// jwt.ErrTokenExpired via errors.Is.
func ValidateJWT(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
