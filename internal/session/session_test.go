package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionStartsEmpty(t *testing.T) {
	s := New(nil)
	require.False(t, s.Authenticated())
	require.Empty(t, s.Token())
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	exp := time.Now().Add(time.Hour)
	token := signedToken(t, exp)
	first := New(NewRedisStore(client, "console:token"))
	require.NoError(t, first.Set(ctx, token))
	require.True(t, mr.Exists("console:token"))
	require.Greater(t, mr.TTL("console:token"), 50*time.Minute)

	second := New(NewRedisStore(client, "console:token"))
	require.NoError(t, second.Restore(ctx))
	require.Equal(t, token, second.Token())

	require.NoError(t, second.Clear(ctx))
	require.False(t, mr.Exists("console:token"))
}

func TestRedisStoreOpaqueTokenHasNoExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := New(NewRedisStore(client, "k"))
	require.NoError(t, s.Set(context.Background(), "opaque"))
	require.Zero(t, mr.TTL("k"))
}

func TestRedisStoreDropsExpiredCredential(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()

	s := New(NewRedisStore(client, "console:token"))
	require.NoError(t, s.Set(ctx, signedToken(t, time.Now().Add(time.Hour))))
	require.True(t, mr.Exists("console:token"))

	expired := signedToken(t, time.Now().Add(-time.Minute))
	require.NoError(t, s.Set(ctx, expired))
	require.False(t, mr.Exists("console:token"))
	require.Equal(t, expired, s.Token())

	store := NewRedisStore(client, "other")
	require.NoError(t, store.Save(ctx, "opaque", time.Hour))
	require.NoError(t, store.Save(ctx, "opaque", -time.Second))
	require.False(t, mr.Exists("other"))
}

func TestClearIfIgnoresStaleToken(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Set(ctx, "new"))

	cleared, err := s.ClearIf(ctx, "old")
	require.NoError(t, err)
	require.False(t, cleared)
	require.Equal(t, "new", s.Token())
}

func TestGuardRejectClearsOnceUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Set(ctx, "tok"))

	var redirects atomic.Int32
	g := NewGuard(s, WithRedirect(func(context.Context) { redirects.Add(1) }))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Reject(ctx, "tok")
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), redirects.Load())
	require.False(t, s.Authenticated())
}

func TestGuardRejectAfterReloginKeepsNewCredential(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	require.NoError(t, s.Set(ctx, "second"))

	var redirects atomic.Int32
	g := NewGuard(s, WithRedirect(func(context.Context) { redirects.Add(1) }))
	g.Reject(ctx, "first")

	require.Equal(t, "second", s.Token())
	require.Zero(t, redirects.Load())
}

type countingRenewer struct {
	calls atomic.Int32
	next  string
	err   error
	delay time.Duration
}

func (r *countingRenewer) Renew(ctx context.Context, token string) (string, error) {
	r.calls.Add(1)
	time.Sleep(r.delay)
	return r.next, r.err
}

func TestGuardRenewsExpiringCredentialOnce(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	old := signedToken(t, time.Now().Add(10*time.Second))
	require.NoError(t, s.Set(ctx, old))

	fresh := signedToken(t, time.Now().Add(time.Hour))
	renewer := &countingRenewer{next: fresh, delay: 20 * time.Millisecond}
	g := NewGuard(s, WithRefreshSkew(time.Minute))
	g.SetRenewer(renewer)

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Token(ctx)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), renewer.calls.Load())
	for _, got := range results {
		require.Equal(t, fresh, got)
	}
	require.Equal(t, fresh, s.Token())
}

func TestGuardKeepsCredentialWhenRenewalFails(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	old := signedToken(t, time.Now().Add(5*time.Second))
	require.NoError(t, s.Set(ctx, old))

	g := NewGuard(s, WithRefreshSkew(time.Minute))
	g.SetRenewer(&countingRenewer{err: errors.New("boom")})

	require.Equal(t, old, g.Token(ctx))
}

func TestGuardSkipsRenewalForOpaqueOrDistantCredentials(t *testing.T) {
	ctx := context.Background()
	renewer := &countingRenewer{next: "x"}

	opaque := New(nil)
	require.NoError(t, opaque.Set(ctx, "opaque"))
	g := NewGuard(opaque, WithRefreshSkew(time.Minute))
	g.SetRenewer(renewer)
	require.Equal(t, "opaque", g.Token(ctx))

	distant := New(nil)
	token := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, distant.Set(ctx, token))
	g = NewGuard(distant, WithRefreshSkew(time.Minute))
	g.SetRenewer(renewer)
	require.Equal(t, token, g.Token(ctx))

	require.Zero(t, renewer.calls.Load())
}
