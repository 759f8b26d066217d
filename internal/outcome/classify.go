package outcome

// FallbackFailureReason is used when the provider declares a terminal
// failure without a human-readable description.
const FallbackFailureReason = "Transaction failed. Any wallet debit will be reversed once the provider confirms the failure."

// responseClass buckets a code or status string for the precedence check.
type responseClass int

const (
	classNone responseClass = iota
	classSuccess
	classFailure
	classProcessing
)

// codeClasses maps provider response codes to their class. Kept as a single
// table so the classification policy is reviewable in one place.
var codeClasses = map[string]responseClass{
	CodeSuccess:    classSuccess,
	CodeFailed:     classFailure,
	CodeReversed:   classFailure,
	CodeProcessing: classProcessing,
}

// statusClasses maps transaction status strings to their class.
var statusClasses = map[string]responseClass{
	StatusDelivered: classSuccess,
	StatusFailed:    classFailure,
	StatusReversed:  classFailure,
	StatusPending:   classProcessing,
	StatusInitiated: classProcessing,
}

// Classify maps a provider response to a reconciliation outcome. It is pure
// and total: every input yields exactly one outcome and the same input
// always yields the same outcome.
//
// Precedence, first match wins:
//  1. success code AND delivered status  -> Success
//  2. failure code OR failed/reversed status -> Failure
//  3. processing code OR pending/initiated status -> Pending
//  4. anything else -> Indeterminate
//
// Success requires both halves to agree: a success code with a pending
// status is still in flight, and a delivered status under a non-success
// code is not trusted.
func Classify(resp ProviderResponse) Outcome {
	codeClass := codeClasses[resp.Code]
	statusClass := statusClasses[resp.Status]

	if codeClass == classSuccess && statusClass == classSuccess {
		return Success(resp.Payload)
	}
	if codeClass == classFailure || statusClass == classFailure {
		reason := resp.Description
		if reason == "" {
			reason = FallbackFailureReason
		}
		return Failure(reason)
	}
	if codeClass == classProcessing || statusClass == classProcessing {
		return Pending()
	}
	return Indeterminate()
}
