// Package outcome defines the provider response model and the classifier
// that maps a response to a reconciliation outcome. The classifier is the
// single source of truth for terminal-state detection; every purchase and
// status-query result passes through it.
package outcome

// Canonical provider response codes. The vending provider reports these on
// both the initiating purchase call and subsequent status queries.
const (
	CodeSuccess    = "000" // transaction processed
	CodeFailed     = "016" // transaction failed
	CodeReversed   = "040" // transaction reversed to wallet
	CodeProcessing = "099" // transaction is processing
)

// Transaction status strings reported alongside the response code.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusReversed  = "reversed"
	StatusPending   = "pending"
	StatusInitiated = "initiated"
)

// ProviderResponse is the normalized result of a purchase call or a status
// query. Payload carries amount, tokens, voucher codes and other product
// metadata; its shape varies by service and is opaque to reconciliation.
type ProviderResponse struct {
	Code        string         `json:"code"`
	Status      string         `json:"transaction_status,omitempty"`
	Description string         `json:"response_description,omitempty"`
	Payload     map[string]any `json:"content,omitempty"`
}
