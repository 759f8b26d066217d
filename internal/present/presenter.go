// Package present projects session snapshots into user-facing display
// states. It renders what the session already decided and never
// re-interprets a classification.
package present

import (
	"fmt"

	"github.com/yourorg/vending-reconciler/internal/outcome"
	"github.com/yourorg/vending-reconciler/internal/session"
)

// DisplayState is the closed set of states a purchase screen can show.
type DisplayState string

const (
	DisplaySuccess    DisplayState = "success"
	DisplayProcessing DisplayState = "processing"
	DisplayError      DisplayState = "error"
)

// Exhaustion is informational, never an error: the transaction may still
// settle outside our observation window.
const exhaustedMessage = "Your transaction is still processing. Check your transaction history shortly, or contact support with your request ID."

const processingMessage = "Your transaction is processing. This can take a few minutes."

// indeterminateMessage is shown when the provider keeps answering with
// responses the classifier does not recognize.
const indeterminateMessage = "We could not confirm your transaction status yet. Check your transaction history before retrying."

// View is everything a purchase screen needs to render one snapshot.
type View struct {
	RequestID    string       `json:"requestId"`
	State        DisplayState `json:"state"`
	Message      string       `json:"message"`
	Token        string       `json:"token,omitempty"`
	AttemptsUsed int          `json:"attemptsUsed"`
}

// tokenKeys are the payload fields the four purchase flows deliver vouchers
// and tokens under, in lookup order.
var tokenKeys = []string{"purchased_code", "token", "Token", "voucher_code", "pin"}

// Present maps a snapshot to its display view.
func Present(snap session.Snapshot) View {
	view := View{
		RequestID:    snap.RequestID,
		AttemptsUsed: snap.AttemptIndex,
	}

	switch snap.State {
	case session.StateSucceeded:
		view.State = DisplaySuccess
		view.Message = "Transaction successful."
		view.Token = extractToken(snap.Outcome.Payload)
	case session.StateFailed:
		view.State = DisplayError
		view.Message = snap.Outcome.Reason
		if view.Message == "" {
			view.Message = outcome.FallbackFailureReason
		}
	case session.StateExhausted:
		view.State = DisplayProcessing
		view.Message = exhaustedMessage
	default:
		view.State = DisplayProcessing
		if snap.Outcome.Kind == outcome.KindIndeterminate && snap.AttemptIndex > 0 {
			view.Message = indeterminateMessage
		} else {
			view.Message = processingMessage
		}
	}
	return view
}

// extractToken pulls the first voucher/token-like string out of the
// provider payload. Payload shapes vary by service; absence is normal for
// services without a redeemable code.
func extractToken(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	for _, key := range tokenKeys {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok && s != "" {
					return s
				}
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
