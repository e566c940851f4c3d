package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gestionhq/gestion-backend/internal/server/services"
	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/gestionhq/gestion-backend/pkg/utils"
)

type contextKey string

const (
	userClaimsKey contextKey = "userClaims"
)

// Error codes surfaced on the wire. Stable: the front end switches on them.
const (
	codeNoToken             = "NO_TOKEN"
	codeInvalidToken        = "INVALID_TOKEN"
	codeNotAuthenticated    = "NOT_AUTHENTICATED"
	codeInsufficientPerms   = "INSUFFICIENT_PERMISSIONS"
	codeMissingEmail        = "MISSING_EMAIL"
	codeInvalidEmailFormat  = "INVALID_EMAIL_FORMAT"
	codeMissingCredentials  = "MISSING_CREDENTIALS"
	codeInvalidTokenFormat  = "INVALID_TOKEN_FORMAT"
	codeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	codeRateLimitError      = "RATE_LIMIT_ERROR"
	codeTokenRequestError   = "TOKEN_REQUEST_ERROR"
	codeTokenVerifyError    = "TOKEN_VERIFICATION_ERROR"
	codeLogoutError         = "LOGOUT_ERROR"
	codeCleanupError        = "CLEANUP_ERROR"
)

// AuthMiddleware validates the presented session credential on every
// protected request: signature and expiry first, then the active session
// record, so logged-out credentials are rejected even while their signature
// still verifies.
func AuthMiddleware(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential, ok := bearerToken(r)
			if !ok {
				respondErrorJSON(w, http.StatusUnauthorized, "Token de acceso requerido", codeNoToken)
				return
			}

			claims, err := authService.ValidateSession(r.Context(), credential)
			if err != nil {
				respondErrorJSON(w, http.StatusUnauthorized, "Token inválido o expirado", codeInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), userClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserClaims(r *http.Request) *utils.Claims {
	claims, ok := r.Context().Value(userClaimsKey).(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RequireRoles allows only requests whose session claims carry one of the
// given roles. Claims roles are parsed into the closed Role set; unknown
// role strings are rejected rather than compared.
func RequireRoles(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r)
			if claims == nil {
				respondErrorJSON(w, http.StatusUnauthorized, "Usuario no autenticado", codeNotAuthenticated)
				return
			}

			role, ok := models.ParseRole(claims.Role)
			if !ok {
				respondErrorJSON(w, http.StatusForbidden, "No tienes permisos para realizar esta acción", codeInsufficientPerms)
				return
			}

			for _, a := range allowed {
				if role == a {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondErrorJSON(w, http.StatusForbidden, "No tienes permisos para realizar esta acción", codeInsufficientPerms)
		})
	}
}

// RequireAdmin guards administrator-only operations.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRoles(models.RoleAdmin)(next)
}

// KeyFunc derives the rate-limit key for a request.
type KeyFunc func(*http.Request) string

// ClientIPKey keys rate-limit windows by client IP. A shared NAT or proxy
// exhausts the quota for everyone behind it; deployments that need a
// different granularity supply their own KeyFunc.
func ClientIPKey(r *http.Request) string {
	return clientIP(r)
}

// RateLimit rejects requests past the limiter's window ceiling before they
// reach the handler.
func RateLimit(limiter *services.FixedWindowLimiter, key KeyFunc) func(http.Handler) http.Handler {
	if key == nil {
		key = ClientIPKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := limiter.Allow(r.Context(), key(r)); err != nil {
				if errors.Is(err, services.ErrRateLimitExceeded) {
					respondErrorJSON(w, http.StatusTooManyRequests, "Demasiados intentos. Intenta de nuevo en 15 minutos.", codeRateLimitExceeded)
					return
				}
				respondErrorJSON(w, http.StatusInternalServerError, "Error interno", codeRateLimitError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
