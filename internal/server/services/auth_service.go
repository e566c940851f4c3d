package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gestionhq/gestion-backend/internal/server/config"
	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/gestionhq/gestion-backend/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidTokenFormat = errors.New("token must be exactly 6 digits")

	// ErrUserNotFound covers both unknown and inactive users; callers
	// surface it with a generic message to avoid account enumeration.
	ErrUserNotFound = errors.New("user not found or inactive")

	ErrTokenInvalidOrExpired   = errors.New("token invalid or expired")
	ErrTokenEmailMismatch      = errors.New("token not valid for this email")
	ErrCredentialInvalid       = errors.New("credential invalid")
	ErrCredentialExpired       = errors.New("credential expired")
	ErrSessionRevokedOrExpired = errors.New("session revoked or expired")
	ErrDeliveryFailed          = errors.New("failed to deliver login code")

	// ErrStoreUnavailable marks transient store failures (timeouts,
	// connectivity), distinct from a definitive not-found.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// TokenStore persists one-time login tokens. ConsumeIfUnused is the
// race-safety contract: the update carries a not-yet-used precondition, so
// concurrent verifications of the same code see at most one true result.
type TokenStore interface {
	Create(ctx context.Context, token *models.AuthToken) error
	GetValidByCode(ctx context.Context, code string, purpose models.TokenPurpose) (*models.AuthToken, error)
	ConsumeIfUnused(ctx context.Context, id uuid.UUID) (bool, error)
	InvalidateUserTokens(ctx context.Context, userID uuid.UUID, purpose models.TokenPurpose) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionStore persists session records keyed by credential hash.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetActiveByHash(ctx context.Context, hash string) (*models.Session, error)
	DeactivateByHash(ctx context.Context, hash string) error
	DeactivateExpired(ctx context.Context) (int64, error)
}

// UserStore is the read-side view of the externally-owned user records.
type UserStore interface {
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// CodeSender delivers a login code out-of-band. Delivery failures surface as
// ErrDeliveryFailed to the caller; retries, if any, belong to the sender.
type CodeSender interface {
	SendLoginCode(ctx context.Context, to, code, displayName string) error
}

type AuthService struct {
	cfg      *config.Config
	tokens   TokenStore
	sessions SessionStore
	users    UserStore
	sender   CodeSender
}

func NewAuthService(
	cfg *config.Config,
	tokens TokenStore,
	sessions SessionStore,
	users UserStore,
	sender CodeSender,
) *AuthService {
	return &AuthService{
		cfg:      cfg,
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		sender:   sender,
	}
}

// RequestLoginToken issues a fresh one-time login code for the active user
// with the given email, superseding any outstanding codes, and hands it to
// the notification sink. Returns the code validity window.
//
// If delivery fails the persisted token is NOT rolled back: the operation
// errors with ErrDeliveryFailed but the code stays valid, so a retry or an
// operator resend can still use it (at-most-one-email, at-least-zero-delivery).
func (s *AuthService) RequestLoginToken(ctx context.Context, email, ipAddress, userAgent string) (time.Duration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.IsValidEmail(email) {
		return 0, ErrInvalidEmailFormat
	}

	user, err := s.getActiveUser(ctx, email)
	if err != nil {
		return 0, err
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	// Supersession: consume all prior outstanding login codes first.
	if _, err := s.tokens.InvalidateUserTokens(storeCtx, user.ID, models.TokenPurposeLogin); err != nil {
		return 0, s.storeErr(err)
	}

	code, err := utils.GenerateLoginCode()
	if err != nil {
		return 0, fmt.Errorf("failed to generate login code: %w", err)
	}

	token := &models.AuthToken{
		UserID:    user.ID,
		Code:      code,
		Purpose:   models.TokenPurposeLogin,
		ExpiresAt: time.Now().UTC().Add(s.cfg.TokenTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.tokens.Create(storeCtx, token); err != nil {
		return 0, s.storeErr(err)
	}

	sendCtx, cancelSend := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancelSend()

	displayName := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if err := s.sender.SendLoginCode(sendCtx, user.Email, code, displayName); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return s.cfg.TokenTTL, nil
}

// VerifyLoginToken exchanges a valid one-time code for a signed session
// credential. The code lookup is code-first with an email cross-check; the
// conditional consume decides races between concurrent attempts, so at most
// one caller ever mints a session from a given code.
func (s *AuthService) VerifyLoginToken(ctx context.Context, email, code, ipAddress, userAgent string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.IsValidLoginCode(code) {
		return "", nil, ErrInvalidTokenFormat
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	token, err := s.tokens.GetValidByCode(storeCtx, code, models.TokenPurposeLogin)
	if err != nil {
		return "", nil, s.storeErr(err)
	}
	if token == nil {
		return "", nil, ErrTokenInvalidOrExpired
	}

	user, err := s.users.GetByID(storeCtx, token.UserID)
	if err != nil {
		return "", nil, s.storeErr(err)
	}
	if user == nil {
		// Orphaned token: the owning user was removed or deactivated.
		return "", nil, ErrTokenInvalidOrExpired
	}

	if !strings.EqualFold(user.Email, email) {
		return "", nil, ErrTokenEmailMismatch
	}

	consumed, err := s.tokens.ConsumeIfUnused(storeCtx, token.ID)
	if err != nil {
		return "", nil, s.storeErr(err)
	}
	if !consumed {
		// A concurrent verification won the race.
		return "", nil, ErrTokenInvalidOrExpired
	}

	credential, err := utils.GenerateJWT(user, s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session credential: %w", err)
	}

	session := &models.Session{
		UserID:         user.ID,
		CredentialHash: utils.HashCredential(credential),
		ExpiresAt:      time.Now().UTC().Add(s.cfg.SessionTTL),
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
	}
	if err := s.sessions.Create(storeCtx, session); err != nil {
		return "", nil, s.storeErr(err)
	}

	if err := s.users.UpdateLastLogin(storeCtx, user.ID); err != nil {
		return "", nil, s.storeErr(err)
	}

	return credential, user, nil
}

// ValidateSession verifies a presented credential end to end: signature and
// embedded expiry first, then the session record bound to its hash. The
// second check is what makes logout effective even though the signed
// credential itself would still verify until its own expiry.
func (s *AuthService) ValidateSession(ctx context.Context, credential string) (*utils.Claims, error) {
	claims, err := utils.ValidateJWT(credential, s.cfg.JWTSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCredentialExpired
		}
		return nil, ErrCredentialInvalid
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	session, err := s.sessions.GetActiveByHash(storeCtx, utils.HashCredential(credential))
	if err != nil {
		return nil, s.storeErr(err)
	}
	if session == nil {
		return nil, ErrSessionRevokedOrExpired
	}

	return claims, nil
}

// Logout revokes the session bound to the presented credential. Revocation
// is best-effort: a store failure is logged and the caller still gets
// success, so a flaky store never traps a user in a session they asked to
// leave.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.sessions.DeactivateByHash(storeCtx, utils.HashCredential(credential)); err != nil {
		log.Printf("Logout: failed to deactivate session: %v", err)
	}
	return nil
}

// SweepExpired deletes expired one-time tokens and deactivates expired
// sessions. Idempotent: already-swept rows no longer match, so a second run
// reports zero. Safe to run concurrently with issuance and verification.
func (s *AuthService) SweepExpired(ctx context.Context) (tokensDeleted, sessionsDeactivated int64, err error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	tokensDeleted, err = s.tokens.DeleteExpired(storeCtx)
	if err != nil {
		return 0, 0, s.storeErr(err)
	}

	sessionsDeactivated, err = s.sessions.DeactivateExpired(storeCtx)
	if err != nil {
		return tokensDeleted, 0, s.storeErr(err)
	}

	return tokensDeleted, sessionsDeactivated, nil
}

func (s *AuthService) getActiveUser(ctx context.Context, email string) (*models.User, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	user, err := s.users.GetActiveByEmail(storeCtx, email)
	if err != nil {
		return nil, s.storeErr(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *AuthService) storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
