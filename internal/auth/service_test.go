package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-console/internal/auth"
	"github.com/odyssey-erp/odyssey-console/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-console/internal/session"
	"github.com/odyssey-erp/odyssey-console/internal/testing/apistub"
)

type harness struct {
	stub      *apistub.Server
	sess      *session.Session
	guard     *session.Guard
	client    *httpx.Client
	svc       *auth.Service
	redirects atomic.Int32
}

func newHarness(t *testing.T, stubOpts []apistub.Option, guardOpts ...session.GuardOption) *harness {
	t.Helper()
	h := &harness{stub: apistub.New(stubOpts...)}
	require.NoError(t, h.stub.AddUser("buyer@example.com", "s3cret"))
	srv := httptest.NewServer(h.stub.Handler())
	t.Cleanup(srv.Close)

	h.sess = session.New(nil)
	guardOpts = append(guardOpts, session.WithRedirect(func(context.Context) { h.redirects.Add(1) }))
	h.guard = session.NewGuard(h.sess, guardOpts...)
	h.client = httpx.NewClient(srv.URL, h.guard)
	h.svc = auth.NewService(h.client, h.sess, nil)
	h.guard.SetRenewer(h.svc)
	return h
}

func TestLoginStoresCredential(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.svc.Login(context.Background(), "buyer@example.com", "s3cret"))
	assert.True(t, h.sess.Authenticated())

	var out []map[string]any
	require.NoError(t, h.client.Do(context.Background(), http.MethodGet, "/purchase/suppliers", nil, &out))
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t, nil)
	err := h.svc.Login(context.Background(), "buyer@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
	assert.False(t, h.sess.Authenticated())
	assert.Zero(t, h.redirects.Load())
}

func TestLoginValidatesLocally(t *testing.T) {
	h := newHarness(t, nil)
	err := h.svc.Login(context.Background(), "not-an-email", "")
	assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))
	assert.Zero(t, h.stub.CallCount("", ""))
}

func TestLogoutClearsEverywhere(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.svc.Login(ctx, "buyer@example.com", "s3cret"))
	old := h.sess.Token()

	require.NoError(t, h.svc.Logout(ctx))
	assert.False(t, h.sess.Authenticated())
	assert.Equal(t, 1, h.stub.CallCount(http.MethodPost, "/auth/logout"))

	err := h.client.DoAs(ctx, http.MethodGet, "/purchase/orders", old, nil, nil)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))

	require.NoError(t, h.svc.Logout(ctx))
	assert.Equal(t, 1, h.stub.CallCount(http.MethodPost, "/auth/logout"))
}

func TestLogoutClearsLocallyWhenRemoteFails(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.svc.Login(ctx, "buyer@example.com", "s3cret"))
	h.stub.Fail(http.MethodPost, "/auth/logout", http.StatusBadGateway, "upstream")

	err := h.svc.Logout(ctx)
	assert.True(t, errors.Is(err, httpx.ErrServer))
	assert.False(t, h.sess.Authenticated())
}

func TestRefreshReplacesCredential(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.ErrorIs(t, h.svc.Refresh(ctx), httpx.ErrUnauthorized)

	require.NoError(t, h.svc.Login(ctx, "buyer@example.com", "s3cret"))
	old := h.sess.Token()
	require.NoError(t, h.svc.Refresh(ctx))
	assert.NotEqual(t, old, h.sess.Token())

	err := h.client.DoAs(ctx, http.MethodGet, "/purchase/orders", old, nil, nil)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
	assert.True(t, h.sess.Authenticated(), "a stale credential does not sign out the current one")
	assert.Zero(t, h.redirects.Load())
}

func TestExpiringCredentialRenewedOnce(t *testing.T) {
	h := newHarness(t, []apistub.Option{apistub.WithTokenTTL(30 * time.Second)}, session.WithRefreshSkew(time.Minute))
	ctx := context.Background()
	require.NoError(t, h.svc.Login(ctx, "buyer@example.com", "s3cret"))
	old := h.sess.Token()
	h.stub.SetTokenTTL(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out []map[string]any
			assert.NoError(t, h.client.Do(ctx, http.MethodGet, "/purchase/orders", nil, &out))
		}()
	}
	wg.Wait()

	assert.NotEqual(t, old, h.sess.Token())
	assert.Equal(t, 1, h.stub.CallCount(http.MethodPost, "/auth/refresh-token"))
	assert.Equal(t, 5, h.stub.CallCount(http.MethodGet, "/purchase/orders"))
	assert.Zero(t, h.redirects.Load())
}
