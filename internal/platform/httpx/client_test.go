package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	mu       sync.Mutex
	token    string
	rejected []string
}

func (s *stubAuth) Token(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *stubAuth) Reject(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, token)
}

func TestDoAttachesHeadersAndDecodes(t *testing.T) {
	var got http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		require.Equal(t, "/api/v1/purchase/suppliers", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"name":"Acme"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/v1/", &stubAuth{token: "tok-1"})
	var out struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	err := client.Do(context.Background(), http.MethodPost, "/purchase/suppliers", map[string]string{"name": "Acme"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer tok-1", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.Equal(t, "Acme", gotBody["name"])
	assert.Equal(t, int64(7), out.ID)
}

func TestDoWithoutCredentialOmitsAuthorization(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubAuth{})
	require.NoError(t, client.Do(context.Background(), http.MethodGet, "/purchase/orders", nil, nil))
	require.Empty(t, auth)
}

func TestDoClassifiesFailures(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
		detail string
	}{
		{http.StatusForbidden, `{"detail":"not allowed"}`, ErrForbidden, "not allowed"},
		{http.StatusNotFound, `{"detail":"Supplier not found"}`, ErrNotFound, "Supplier not found"},
		{http.StatusConflict, `{"title":"Duplicate","status":409}`, ErrConflict, "Duplicate"},
		{http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","email"],"msg":"invalid email"}]}`, ErrBadRequest, "[body email]: invalid email"},
		{http.StatusTooManyRequests, `Too Many Requests`, ErrRateLimited, "Too Many Requests"},
		{http.StatusInternalServerError, ``, ErrServer, ""},
		{http.StatusBadGateway, `<html>bad gateway</html>`, ErrServer, "<html>bad gateway</html>"},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			auth := &stubAuth{token: "tok"}
			err := NewClient(srv.URL, auth).Do(context.Background(), http.MethodDelete, "/purchase/suppliers/1", nil, nil)
			require.ErrorIs(t, err, tc.want)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			require.Equal(t, tc.status, statusErr.Status)
			require.Equal(t, tc.detail, statusErr.Detail)
			require.Empty(t, auth.rejected)
		})
	}
}

func TestDoRejectsCredentialOnUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer srv.Close()

	auth := &stubAuth{token: "stale"}
	err := NewClient(srv.URL, auth).Do(context.Background(), http.MethodGet, "/purchase/orders", nil, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, []string{"stale"}, auth.rejected)
}

func TestDoAsUsesExplicitCredential(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, &stubAuth{token: "current"})
	require.NoError(t, client.DoAs(context.Background(), http.MethodPost, "/auth/refresh-token", "explicit", nil, nil))
	require.Equal(t, "Bearer explicit", auth)
}

func TestClassify(t *testing.T) {
	require.NoError(t, Classify(http.StatusOK))
	require.ErrorIs(t, Classify(http.StatusBadRequest), ErrBadRequest)
	require.ErrorIs(t, Classify(http.StatusServiceUnavailable), ErrServer)
}

type observed struct {
	method string
	path   string
	status int
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observed
}

func (o *recordingObserver) ObserveRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observed{method, path, status})
}

func TestDoReportsToObserver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	obs := &recordingObserver{}
	client := NewClient(srv.URL, nil, WithObserver(obs))

	err := client.Do(context.Background(), http.MethodGet, "/purchase/orders/9", nil, nil)
	require.ErrorIs(t, err, ErrNotFound)

	srv.Close()
	err = client.Do(context.Background(), http.MethodGet, "/purchase/orders", nil, nil)
	require.Error(t, err)

	require.Len(t, obs.calls, 2)
	assert.Equal(t, observed{http.MethodGet, "/purchase/orders/9", http.StatusNotFound}, obs.calls[0])
	assert.Equal(t, 0, obs.calls[1].status)
}
