package vending

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/vending-reconciler/internal/outcome"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewHTTPClient(HTTPClientConfig{
		BaseURL:   srv.URL,
		APIKey:    "pk_test",
		SecretKey: "sk_test",
	})
	return client, srv
}

func TestHTTPClient_Purchase(t *testing.T) {
	var gotBody map[string]any
	var gotPath, gotAPIKey string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": "099",
			"response_description": "TRANSACTION PROCESSING",
			"content": {"transactions": {"status": "pending", "amount": 2500}}
		}`))
	})

	resp, err := client.Purchase(context.Background(), PurchaseRequest{
		ServiceID:     "ikeja-electric",
		VariationCode: "prepaid",
		BillersCode:   "1010101010101",
		Amount:        2500,
		Phone:         "08011111111",
		RequestID:     "req-1",
		Extra:         map[string]string{"subscription_type": "change"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/pay", gotPath)
	assert.Equal(t, "pk_test", gotAPIKey)
	assert.Equal(t, "req-1", gotBody["request_id"])
	assert.Equal(t, "ikeja-electric", gotBody["serviceID"])
	assert.Equal(t, "prepaid", gotBody["variation_code"])
	assert.Equal(t, "change", gotBody["subscription_type"])

	assert.Equal(t, outcome.CodeProcessing, resp.Code)
	assert.Equal(t, outcome.StatusPending, resp.Status)
	assert.Equal(t, "TRANSACTION PROCESSING", resp.Description)
	assert.Equal(t, outcome.KindPending, outcome.Classify(resp).Kind)
}

func TestHTTPClient_QueryStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/requery", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "req-9", body["request_id"])
		_, _ = w.Write([]byte(`{
			"code": "000",
			"response_description": "TRANSACTION SUCCESSFUL",
			"content": {"transactions": {"status": "delivered"}, "purchased_code": "Token : 1111-2222-3333"}
		}`))
	})

	resp, err := client.QueryStatus(context.Background(), "req-9")
	require.NoError(t, err)
	assert.Equal(t, outcome.CodeSuccess, resp.Code)
	assert.Equal(t, outcome.StatusDelivered, resp.Status)
	assert.Equal(t, "Token : 1111-2222-3333", resp.Payload["purchased_code"])
	assert.True(t, outcome.Classify(resp).Terminal())
}

func TestHTTPClient_ServerErrorIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	_, err := client.QueryStatus(context.Background(), "req-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestHTTPClient_BadJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	_, err := client.QueryStatus(context.Background(), "req-3")
	require.Error(t, err)
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"code":"000"}`))
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.QueryStatus(ctx, "req-4")
	require.Error(t, err)
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	client := NewHTTPClient(HTTPClientConfig{BaseURL: "http://localhost:1"})
	assert.Equal(t, DefaultQueryTimeout, client.rest.GetClient().Timeout)
}
