package api

import (
	"errors"
	"net/http"

	"github.com/gestionhq/gestion-backend/internal/server/services"
	"github.com/gestionhq/gestion-backend/pkg/models"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RequestToken handles POST /auth/request-token.
func (h *AuthHandler) RequestToken(w http.ResponseWriter, r *http.Request) {
	var req models.RequestTokenRequest

	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido", codeMissingEmail)
		return
	}

	if req.Email == "" {
		respondErrorJSON(w, http.StatusBadRequest, "Email es requerido", codeMissingEmail)
		return
	}

	expiresIn, err := h.authService.RequestLoginToken(r.Context(), req.Email, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmailFormat):
			respondErrorJSON(w, http.StatusBadRequest, "Formato de email inválido", codeInvalidEmailFormat)
		case errors.Is(err, services.ErrUserNotFound):
			// Generic message: the response must not confirm whether the
			// account exists.
			respondErrorJSON(w, http.StatusNotFound, "No se pudo enviar el token", codeTokenRequestError)
		case errors.Is(err, services.ErrDeliveryFailed):
			respondErrorJSON(w, http.StatusBadGateway, "No se pudo enviar el token", codeTokenRequestError)
		case errors.Is(err, services.ErrStoreUnavailable):
			respondErrorJSON(w, http.StatusInternalServerError, "Error interno", codeTokenRequestError)
		default:
			respondErrorJSON(w, http.StatusBadRequest, "No se pudo enviar el token", codeTokenRequestError)
		}
		return
	}

	respondJSON(w, http.StatusOK, models.RequestTokenResponse{
		Success:   true,
		Message:   "Token enviado al email correctamente",
		ExpiresIn: int(expiresIn.Seconds()),
	})
}

// VerifyToken handles POST /auth/verify-token.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyTokenRequest

	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido", codeMissingCredentials)
		return
	}

	if req.Email == "" || req.Token == "" {
		respondErrorJSON(w, http.StatusBadRequest, "Email y token son requeridos", codeMissingCredentials)
		return
	}

	credential, user, err := h.authService.VerifyLoginToken(r.Context(), req.Email, req.Token, clientIP(r), r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTokenFormat):
			respondErrorJSON(w, http.StatusBadRequest, "Token debe ser de 6 dígitos", codeInvalidTokenFormat)
		case errors.Is(err, services.ErrStoreUnavailable):
			respondErrorJSON(w, http.StatusInternalServerError, "Error interno", codeTokenVerifyError)
		default:
			// Invalid, expired, consumed and mismatched tokens all read the
			// same from outside.
			respondErrorJSON(w, http.StatusUnauthorized, "Token inválido o expirado", codeTokenVerifyError)
		}
		return
	}

	respondJSON(w, http.StatusOK, models.VerifyTokenResponse{
		Success: true,
		Message: "Login exitoso",
		Token:   credential,
		Usuario: user.Summary(),
	})
}

// Status handles GET /auth/status. AuthMiddleware already validated the
// session; the claims carry everything needed for the response.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims := GetUserClaims(r)
	if claims == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "No autenticado", codeNotAuthenticated)
		return
	}

	respondJSON(w, http.StatusOK, models.StatusResponse{
		Success:       true,
		Authenticated: true,
		Usuario: models.UserSummary{
			ID:        claims.UserID,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
			Email:     claims.Email,
			Role:      models.Role(claims.Role),
		},
	})
}

// Logout handles POST /auth/logout. Revocation is best-effort; the response
// reports success regardless so the client can always drop its credential.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	credential, ok := bearerToken(r)
	if !ok {
		respondErrorJSON(w, http.StatusUnauthorized, "Token de acceso requerido", codeNoToken)
		return
	}

	if err := h.authService.Logout(r.Context(), credential); err != nil {
		respondErrorJSON(w, http.StatusInternalServerError, "Error al cerrar sesión", codeLogoutError)
		return
	}

	respondJSON(w, http.StatusOK, models.LogoutResponse{
		Success: true,
		Message: "Sesión cerrada correctamente",
	})
}

// SweepExpired handles POST /auth/sweep-expired (administrators only).
func (h *AuthHandler) SweepExpired(w http.ResponseWriter, r *http.Request) {
	tokensDeleted, sessionsDeactivated, err := h.authService.SweepExpired(r.Context())
	if err != nil {
		respondErrorJSON(w, http.StatusInternalServerError, "Error en limpieza", codeCleanupError)
		return
	}

	respondJSON(w, http.StatusOK, models.SweepExpiredResponse{
		TokensDeleted:       tokensDeleted,
		SessionsDeactivated: sessionsDeactivated,
	})
}
