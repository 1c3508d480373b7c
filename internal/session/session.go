package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session holds the current credential. It starts empty; Restore pulls a
// previously saved credential from the store.
type Session struct {
	mu    sync.RWMutex
	token string
	store TokenStore
	now   func() time.Time
}

// New returns an empty Session backed by store. A nil store keeps the
// credential in memory.
func New(store TokenStore) *Session {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Session{store: store, now: time.Now}
}

// Restore loads the stored credential into the session.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Token returns the current credential, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a credential is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Set replaces the credential.
func (s *Session) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, token); err != nil {
		return err
	}
	s.token = token
	return nil
}

// Replace swaps old for next only when old is still current. It reports
// whether the swap happened.
func (s *Session) Replace(ctx context.Context, old, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != old || old == "" {
		return false, nil
	}
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.token = next
	return true, nil
}

// persist writes token to the store with its remaining lifetime. A JWT that
// has already expired is not persisted and any stored copy is removed.
func (s *Session) persist(ctx context.Context, token string) error {
	exp, ok := expiry(token)
	if !ok {
		return s.store.Save(ctx, token, 0)
	}
	ttl := exp.Sub(s.now())
	if ttl <= 0 {
		return s.store.Delete(ctx)
	}
	return s.store.Save(ctx, token, ttl)
}

// Clear drops the credential unconditionally.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return s.store.Delete(ctx)
}

// ClearIf drops the credential only when it still equals token. It reports
// whether anything was cleared, so concurrent rejections of the same
// credential clear it exactly once.
func (s *Session) ClearIf(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.token != token {
		return false, nil
	}
	s.token = ""
	return true, s.store.Delete(ctx)
}

// ExpiresWithin reports whether the current credential is a JWT whose exp
// falls within d. Opaque credentials never report true.
func (s *Session) ExpiresWithin(d time.Duration) bool {
	exp, ok := expiry(s.Token())
	if !ok {
		return false
	}
	return exp.Sub(s.now()) <= d
}

// expiry reads the exp claim without verifying the signature; the API is the
// only party that verifies credentials.
func expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
