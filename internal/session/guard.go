package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Renewer exchanges a credential that is about to expire for a fresh one.
type Renewer interface {
	Renew(ctx context.Context, token string) (string, error)
}

// RedirectFunc sends the user back to the authentication entry point.
type RedirectFunc func(ctx context.Context)

// Guard attaches the session credential to requests and clears it when the
// API rejects it. It satisfies httpx.Authorizer.
type Guard struct {
	session  *Session
	logger   *slog.Logger
	redirect RedirectFunc
	skew     time.Duration

	mu      sync.RWMutex
	renewer Renewer
	renewal singleflight.Group
}

// GuardOption customises a Guard.
type GuardOption func(*Guard)

// WithRedirect sets the callback run once per rejected credential.
func WithRedirect(fn RedirectFunc) GuardOption {
	return func(g *Guard) { g.redirect = fn }
}

// WithRefreshSkew renews JWT credentials expiring within d before they are sent.
func WithRefreshSkew(d time.Duration) GuardOption {
	return func(g *Guard) { g.skew = d }
}

// WithGuardLogger sets the guard logger.
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard constructs a Guard for session.
func NewGuard(session *Session, opts ...GuardOption) *Guard {
	g := &Guard{session: session, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetRenewer installs the credential renewer. The renewer usually depends on
// the transport that depends on the guard, hence the setter.
func (g *Guard) SetRenewer(r Renewer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.renewer = r
}

// Session exposes the guarded session.
func (g *Guard) Session() *Session {
	return g.session
}

// Token returns the credential for the next request, renewing it first when
// it is about to expire. A failed renewal keeps the current credential.
func (g *Guard) Token(ctx context.Context) string {
	token := g.session.Token()
	if token == "" || g.skew <= 0 || !g.session.ExpiresWithin(g.skew) {
		return g.session.Token()
	}
	g.mu.RLock()
	renewer := g.renewer
	g.mu.RUnlock()
	if renewer == nil {
		return token
	}

	fresh, err, _ := g.renewal.Do(token, func() (any, error) {
		if current := g.session.Token(); current != token {
			return current, nil
		}
		next, err := renewer.Renew(ctx, token)
		if err != nil {
			return "", err
		}
		if _, err := g.session.Replace(ctx, token, next); err != nil {
			return "", err
		}
		return next, nil
	})
	if err != nil {
		g.logger.Warn("credential renewal failed", slog.Any("error", err))
		return g.session.Token()
	}
	if next, _ := fresh.(string); next != "" {
		return next
	}
	return g.session.Token()
}

// Reject clears token if it is still the current credential and redirects to
// the authentication entry point. Repeated rejections of the same credential
// are no-ops.
func (g *Guard) Reject(ctx context.Context, token string) {
	cleared, err := g.session.ClearIf(ctx, token)
	if err != nil {
		g.logger.Error("clear rejected credential", slog.Any("error", err))
	}
	if !cleared {
		return
	}
	g.logger.Info("session credential rejected, signing out")
	if g.redirect != nil {
		g.redirect(ctx)
	}
}

// Logout clears the credential locally.
func (g *Guard) Logout(ctx context.Context) error {
	return g.session.Clear(ctx)
}
