package apistub_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-console/internal/purchase"
	"github.com/odyssey-erp/odyssey-console/internal/testing/apistub"
)

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLoginIssuesBearerToken(t *testing.T) {
	stub := apistub.New()
	require.NoError(t, stub.AddUser("buyer@example.com", "s3cret"))
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()

	resp := do(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "buyer@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/auth/login", "", map[string]string{"email": "buyer@example.com", "password": "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, "bearer", out.TokenType)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = do(t, srv, http.MethodGet, "/purchase/suppliers", out.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPurchaseRequiresCredential(t *testing.T) {
	stub := apistub.New()
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/purchase/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := stub.Issue("buyer@example.com")
	require.NoError(t, err)
	stub.RevokeAll()
	resp = do(t, srv, http.MethodGet, "/purchase/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExpiredCredentialRejected(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	stub := apistub.New(apistub.WithTokenTTL(time.Minute), apistub.WithClock(func() time.Time { return now }))
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()

	token, err := stub.Issue("buyer@example.com")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	resp := do(t, srv, http.MethodGet, "/purchase/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSupplierDeleteConflict(t *testing.T) {
	stub := apistub.New()
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()
	token, err := stub.Issue("buyer@example.com")
	require.NoError(t, err)

	sup := stub.SeedSupplier(purchase.SupplierInput{Name: "Acme", Type: purchase.SupplierManufacturer, Email: "acme@example.com", IsActive: true})
	resp := do(t, srv, http.MethodPost, "/purchase/orders", token, map[string]any{
		"supplier_id":   sup.ID,
		"order_number":  "PO-1",
		"expected_date": "2030-01-01",
		"status":        "draft",
		"items":         []map[string]any{{"product_id": 7, "quantity": 3, "unit_price": 4, "discount": 0}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order purchase.PurchaseOrder
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	assert.Equal(t, "12", order.TotalAmount.String())

	resp = do(t, srv, http.MethodDelete, "/purchase/suppliers/"+strconv.FormatInt(sup.ID, 10), token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestInvalidSupplierReturnsFieldErrors(t *testing.T) {
	stub := apistub.New()
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()
	token, err := stub.Issue("buyer@example.com")
	require.NoError(t, err)

	resp := do(t, srv, http.MethodPost, "/purchase/suppliers", token, map[string]any{"type": "manufacturer"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Detail []struct {
			Loc []string `json:"loc"`
		} `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Detail, 2)
	assert.Equal(t, []string{"body", "name"}, body.Detail[0].Loc)
}

func TestFaultAndCallCount(t *testing.T) {
	stub := apistub.New()
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()
	token, err := stub.Issue("buyer@example.com")
	require.NoError(t, err)

	stub.Fail(http.MethodGet, "/purchase/receipts", http.StatusInternalServerError, "boom")
	resp := do(t, srv, http.MethodGet, "/purchase/receipts", token, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp = do(t, srv, http.MethodGet, "/purchase/receipts", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 2, stub.CallCount(http.MethodGet, "/purchase/receipts"))

	stub.FailAfter(http.MethodGet, "/purchase/orders", 1, http.StatusServiceUnavailable, "maintenance")
	resp = do(t, srv, http.MethodGet, "/purchase/orders", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, srv, http.MethodGet, "/purchase/orders", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp = do(t, srv, http.MethodGet, "/purchase/orders", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stub.ResetCalls()
	assert.Empty(t, stub.Calls())
}

func TestRateLimit(t *testing.T) {
	stub := apistub.New(apistub.WithRateLimit(1, time.Minute))
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()

	do(t, srv, http.MethodPost, "/auth/login", "", map[string]string{})
	resp := do(t, srv, http.MethodPost, "/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
