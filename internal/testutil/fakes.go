package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/gestionhq/gestion-backend/pkg/models"
	"github.com/google/uuid"
)

// In-memory store fakes for service-level tests. They mirror the store
// contracts closely enough to exercise the auth flows without a database:
// the token fake enforces the not-yet-used precondition under a lock, and
// every fake exposes a FailWith error to simulate an unavailable store.

// FakeUserStore serves a fixed set of users keyed by ID.
type FakeUserStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*models.User
	lastLogins map[uuid.UUID]time.Time

	FailWith error
}

func NewFakeUserStore(users ...*models.User) *FakeUserStore {
	s := &FakeUserStore{
		users:      make(map[uuid.UUID]*models.User),
		lastLogins: make(map[uuid.UUID]time.Time),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *FakeUserStore) GetActiveByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	for _, u := range s.users {
		if u.Email == email && u.Active {
			return u, nil
		}
	}
	return nil, nil
}

func (s *FakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	u, ok := s.users[id]
	if !ok || !u.Active {
		return nil, nil
	}
	return u, nil
}

func (s *FakeUserStore) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.lastLogins[id] = time.Now()
	return nil
}

// LastLogin reports the recorded login time for a user, if any.
func (s *FakeUserStore) LastLogin(id uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastLogins[id]
	return t, ok
}

// FakeTokenStore keeps tokens in a slice and applies the same validity rules
// as the SQL queries: unused, matching purpose, not expired.
type FakeTokenStore struct {
	mu     sync.Mutex
	tokens []*models.AuthToken

	FailWith error
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

func (s *FakeTokenStore) Create(_ context.Context, token *models.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	s.tokens = append(s.tokens, token)
	return nil
}

func (s *FakeTokenStore) GetValidByCode(_ context.Context, code string, purpose models.TokenPurpose) (*models.AuthToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var newest *models.AuthToken
	for _, t := range s.tokens {
		if t.Code != code || t.Purpose != purpose || t.Used || !t.ExpiresAt.After(time.Now()) {
			continue
		}
		if newest == nil || t.CreatedAt.After(newest.CreatedAt) {
			newest = t
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

func (s *FakeTokenStore) ConsumeIfUnused(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}
	for _, t := range s.tokens {
		if t.ID == id && !t.Used {
			t.Used = true
			return true, nil
		}
	}
	return false, nil
}

func (s *FakeTokenStore) InvalidateUserTokens(_ context.Context, userID uuid.UUID, purpose models.TokenPurpose) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	var n int64
	for _, t := range s.tokens {
		if t.UserID == userID && t.Purpose == purpose && !t.Used {
			t.Used = true
			n++
		}
	}
	return n, nil
}

func (s *FakeTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	now := time.Now()
	var kept []*models.AuthToken
	var n int64
	for _, t := range s.tokens {
		if !t.ExpiresAt.After(now) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	s.tokens = kept
	return n, nil
}

// Tokens returns a snapshot of all stored tokens.
func (s *FakeTokenStore) Tokens() []models.AuthToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuthToken, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, *t)
	}
	return out
}

// FakeSessionStore keeps session records keyed by credential hash.
type FakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session

	FailWith error
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{sessions: make(map[string]*models.Session)}
}

func (s *FakeSessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	session.ID = uuid.New()
	session.Active = true
	session.CreatedAt = time.Now()
	s.sessions[session.CredentialHash] = session
	return nil
}

func (s *FakeSessionStore) GetActiveByHash(_ context.Context, hash string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	sess, ok := s.sessions[hash]
	if !ok || !sess.Active || !sess.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	copied := *sess
	return &copied, nil
}

func (s *FakeSessionStore) DeactivateByHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if sess, ok := s.sessions[hash]; ok {
		sess.Active = false
	}
	return nil
}

func (s *FakeSessionStore) DeactivateExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	now := time.Now()
	var n int64
	for _, sess := range s.sessions {
		if sess.Active && !sess.ExpiresAt.After(now) {
			sess.Active = false
			n++
		}
	}
	return n, nil
}

// ActiveCount reports how many stored sessions are currently active.
func (s *FakeSessionStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.Active {
			n++
		}
	}
	return n
}

// SentCode records one delivery handed to a FakeSender.
type SentCode struct {
	To          string
	Code        string
	DisplayName string
}

// FakeSender records delivered codes instead of sending email.
type FakeSender struct {
	mu   sync.Mutex
	sent []SentCode

	FailWith error
}

func NewFakeSender() *FakeSender {
	return &FakeSender{}
}

func (s *FakeSender) SendLoginCode(_ context.Context, to, code, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.sent = append(s.sent, SentCode{To: to, Code: code, DisplayName: displayName})
	return nil
}

// Sent returns a snapshot of recorded deliveries.
func (s *FakeSender) Sent() []SentCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentCode(nil), s.sent...)
}

// LastCode returns the most recently delivered code, or "" when none.
func (s *FakeSender) LastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].Code
}
