package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

const (
	// TokenPrefix identifies nippo session tokens
	TokenPrefix = "nippo_"
	// TokenLength is the number of random bytes per token (256 bits)
	TokenLength = 32

	// DefaultSessionTTL is the absolute session lifetime. There is no
	// sliding renewal; a session dies at creation time + TTL.
	DefaultSessionTTL = 24 * time.Hour
)

// Session binds a token to an authenticated identity until it expires or
// is destroyed.
type Session struct {
	Identity  Identity
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore persists session state keyed by token. Implementations must
// be safe for concurrent use. The in-memory store below is the default; a
// multi-instance deployment substitutes a shared store without changing
// the SessionManager contract.
type SessionStore interface {
	Put(token string, session Session)
	Get(token string) (Session, bool)
	Delete(token string)
	// DeleteExpired removes sessions that expired before now and returns
	// how many were removed.
	DeleteExpired(now time.Time) int
}

// MemorySessionStore keeps sessions in an in-process map
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
	}
}

func (s *MemorySessionStore) Put(token string, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session
}

func (s *MemorySessionStore) Get(token string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	return session, ok
}

func (s *MemorySessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *MemorySessionStore) DeleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SessionManager issues, resolves and destroys sessions. Tokens are opaque
// random values; the server-side store is the only place a token means
// anything.
type SessionManager struct {
	store SessionStore
	ttl   time.Duration

	// now is swappable in expiry tests
	now func() time.Time
}

// NewSessionManager creates a session manager over the given store. A zero
// ttl falls back to DefaultSessionTTL.
func NewSessionManager(store SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Create issues a new session for the authenticated user and returns its
// token. Called only after credential verification succeeds.
func (m *SessionManager) Create(userID int64, username string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := m.now()
	m.store.Put(token, Session{
		Identity:  Identity{UserID: userID, Username: username},
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})

	return token, nil
}

// Resolve returns the identity bound to token, or false if the token is
// unknown or the session has passed its absolute expiry. Expired sessions
// are purged on read.
func (m *SessionManager) Resolve(token string) (Identity, bool) {
	session, ok := m.store.Get(token)
	if !ok {
		return Identity{}, false
	}
	if m.now().After(session.ExpiresAt) {
		m.store.Delete(token)
		return Identity{}, false
	}
	return session.Identity, true
}

// Destroy invalidates the session for token. Idempotent: destroying an
// absent or already-destroyed session succeeds silently.
func (m *SessionManager) Destroy(token string) {
	m.store.Delete(token)
}

// Sweep removes expired sessions from the store and returns how many were
// removed. Wired to a periodic schedule at startup.
func (m *SessionManager) Sweep() int {
	return m.store.DeleteExpired(m.now())
}

// TTL returns the absolute session lifetime
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// generateToken creates an opaque session token.
// Format: nippo_<base64url(32 random bytes)>
func generateToken() (string, error) {
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
