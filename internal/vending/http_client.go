package vending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yourorg/vending-reconciler/internal/outcome"
)

// DefaultQueryTimeout bounds each provider call. Kept below the smallest
// backoff delay so a hung query can never push back the next scheduled
// attempt.
const DefaultQueryTimeout = 10 * time.Second

const (
	payEndpoint     = "/pay"
	requeryEndpoint = "/requery"
)

// HTTPClientConfig holds the provider endpoint and credentials.
type HTTPClientConfig struct {
	BaseURL      string
	APIKey       string
	SecretKey    string
	QueryTimeout time.Duration
}

// HTTPClient talks to the vending provider's REST API.
type HTTPClient struct {
	rest *resty.Client
}

// wireResponse mirrors the provider's JSON envelope. The transaction status
// lives under content.transactions on both pay and requery responses.
type wireResponse struct {
	Code                string         `json:"code"`
	ResponseDescription string         `json:"response_description"`
	Content             map[string]any `json:"content"`
}

// NewHTTPClient creates a provider client from config. A zero QueryTimeout
// falls back to DefaultQueryTimeout.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("api-key", cfg.APIKey).
		SetHeader("secret-key", cfg.SecretKey).
		SetHeader("Content-Type", "application/json")
	return &HTTPClient{rest: rest}
}

// Purchase submits a purchase tagged with req.RequestID.
func (c *HTTPClient) Purchase(ctx context.Context, req PurchaseRequest) (outcome.ProviderResponse, error) {
	body := map[string]any{
		"request_id":  req.RequestID,
		"serviceID":   req.ServiceID,
		"billersCode": req.BillersCode,
		"phone":       req.Phone,
	}
	if req.VariationCode != "" {
		body["variation_code"] = req.VariationCode
	}
	if req.Amount > 0 {
		body["amount"] = req.Amount
	}
	for k, v := range req.Extra {
		body[k] = v
	}
	return c.post(ctx, payEndpoint, body)
}

// QueryStatus asks the provider for the current state of a transaction.
func (c *HTTPClient) QueryStatus(ctx context.Context, requestID string) (outcome.ProviderResponse, error) {
	return c.post(ctx, requeryEndpoint, map[string]any{"request_id": requestID})
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, body map[string]any) (outcome.ProviderResponse, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return outcome.ProviderResponse{}, fmt.Errorf("vending: %s request failed: %w", endpoint, err)
	}
	if resp.StatusCode() >= 500 {
		return outcome.ProviderResponse{}, fmt.Errorf("vending: %s returned HTTP %d", endpoint, resp.StatusCode())
	}

	var wire wireResponse
	if err := json.Unmarshal(resp.Body(), &wire); err != nil {
		return outcome.ProviderResponse{}, fmt.Errorf("vending: decoding %s response: %w", endpoint, err)
	}
	return normalize(wire), nil
}

// normalize flattens the provider envelope into the core's response model.
func normalize(wire wireResponse) outcome.ProviderResponse {
	out := outcome.ProviderResponse{
		Code:        wire.Code,
		Description: wire.ResponseDescription,
		Payload:     wire.Content,
	}
	if tx, ok := wire.Content["transactions"].(map[string]any); ok {
		if status, ok := tx["status"].(string); ok {
			out.Status = status
		}
	}
	return out
}
