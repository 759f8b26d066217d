package outcome

// Kind is the closed set of reconciliation outcomes.
type Kind int

const (
	KindIndeterminate Kind = iota
	KindPending
	KindSuccess
	KindFailure
)

// String returns the lowercase name used in logs, metrics and JSON.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindPending:
		return "pending"
	default:
		return "indeterminate"
	}
}

// Terminal reports whether no further polling can change the outcome.
func (k Kind) Terminal() bool {
	return k == KindSuccess || k == KindFailure
}

// Outcome is the classification of a single ProviderResponse. It is always
// recomputed from the latest response, never persisted independently.
type Outcome struct {
	Kind    Kind
	Reason  string         // human-readable failure reason, set for KindFailure
	Payload map[string]any // provider payload, set for KindSuccess
}

// Success builds a terminal success outcome carrying the provider payload.
func Success(payload map[string]any) Outcome {
	return Outcome{Kind: KindSuccess, Payload: payload}
}

// Failure builds a terminal failure outcome with a human-readable reason.
func Failure(reason string) Outcome {
	return Outcome{Kind: KindFailure, Reason: reason}
}

// Pending indicates the provider acknowledged the transaction but has not
// settled it yet.
func Pending() Outcome {
	return Outcome{Kind: KindPending}
}

// Indeterminate indicates a response the classification table does not
// recognize. Scheduled identically to Pending, but flagged so the presenter
// can show a more cautious message if it persists.
func Indeterminate() Outcome {
	return Outcome{Kind: KindIndeterminate}
}

// Terminal reports whether the outcome is Success or Failure.
func (o Outcome) Terminal() bool {
	return o.Kind.Terminal()
}
