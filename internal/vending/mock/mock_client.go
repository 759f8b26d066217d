// Package mock provides a func-field implementation of vending.Client for
// tests and local development.
package mock

import (
	"context"

	"github.com/yourorg/vending-reconciler/internal/outcome"
	"github.com/yourorg/vending-reconciler/internal/vending"
)

// MockClient implements vending.Client. When a func field is nil the call
// returns a default delivered-success response.
type MockClient struct {
	PurchaseFunc    func(ctx context.Context, req vending.PurchaseRequest) (outcome.ProviderResponse, error)
	QueryStatusFunc func(ctx context.Context, requestID string) (outcome.ProviderResponse, error)

	// Counters for assertions. The mock is not safe for concurrent use
	// unless the test serializes calls, which the single-outstanding-query
	// discipline already guarantees.
	PurchaseCalls int
	QueryCalls    int
}

// NewMockClient creates a MockClient with default success behavior.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Purchase implements vending.Client.
func (m *MockClient) Purchase(ctx context.Context, req vending.PurchaseRequest) (outcome.ProviderResponse, error) {
	m.PurchaseCalls++
	if m.PurchaseFunc != nil {
		return m.PurchaseFunc(ctx, req)
	}
	return outcome.ProviderResponse{
		Code:        outcome.CodeSuccess,
		Status:      outcome.StatusDelivered,
		Description: "TRANSACTION SUCCESSFUL",
		Payload:     map[string]any{"request_id": req.RequestID, "mock": true},
	}, nil
}

// QueryStatus implements vending.Client.
func (m *MockClient) QueryStatus(ctx context.Context, requestID string) (outcome.ProviderResponse, error) {
	m.QueryCalls++
	if m.QueryStatusFunc != nil {
		return m.QueryStatusFunc(ctx, requestID)
	}
	return outcome.ProviderResponse{
		Code:        outcome.CodeSuccess,
		Status:      outcome.StatusDelivered,
		Description: "TRANSACTION SUCCESSFUL",
		Payload:     map[string]any{"request_id": requestID, "mock": true},
	}, nil
}
