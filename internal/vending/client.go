// Package vending defines the interface to the downstream vending provider
// and contains its HTTP implementation. The client handles provider-specific
// serialization, auth headers and error mapping, normalizing raw responses
// into outcome.ProviderResponse for the reconciliation core.
package vending

import (
	"context"

	"github.com/yourorg/vending-reconciler/internal/outcome"
)

// PurchaseRequest carries the fields every purchase flow (cable, electricity,
// education) shares. Extra holds service-specific fields passed through to
// the provider untouched.
type PurchaseRequest struct {
	ServiceID     string            `json:"serviceID"`
	VariationCode string            `json:"variation_code,omitempty"`
	BillersCode   string            `json:"billersCode"` // smartcard / meter / profile number
	Amount        int64             `json:"amount,omitempty"`
	Phone         string            `json:"phone"`
	RequestID     string            `json:"request_id"`
	Extra         map[string]string `json:"-"`
}

// Client is the boundary to the vending provider.
//
// Purchase is side-effecting; the provider is expected to deduplicate
// retries sharing a request id, but this core does not rely on it.
// QueryStatus is read-only and safe to call repeatedly.
type Client interface {
	Purchase(ctx context.Context, req PurchaseRequest) (outcome.ProviderResponse, error)
	QueryStatus(ctx context.Context, requestID string) (outcome.ProviderResponse, error)
}
