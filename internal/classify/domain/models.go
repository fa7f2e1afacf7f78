package domain

import "errors"

// Outcome is the result category of classifying one customer.
type Outcome string

const (
	OutcomeAlreadyTagged  Outcome = "already_tagged"
	OutcomeNewlyTagged    Outcome = "newly_tagged"
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeFailed         Outcome = "failed"
)

// Result is the transient, per-invocation classification outcome.
type Result struct {
	CustomerID int64
	Outcome    Outcome
	Spend      float64
	Err        error
}

func (r Result) IsVIP() bool {
	return r.Outcome == OutcomeAlreadyTagged || r.Outcome == OutcomeNewlyTagged
}

// DecisionKind says what the reconciler concluded.
type DecisionKind string

const (
	DecisionAlreadyTagged  DecisionKind = "already_tagged"
	DecisionBelowThreshold DecisionKind = "below_threshold"
	DecisionApply          DecisionKind = "apply"
)

// Decision is the reconciler's verdict. Tags and Note are set only for
// DecisionApply.
type Decision struct {
	Kind DecisionKind
	Tags []string
	Note string
}

// ErrInvalidAmount marks malformed or missing order prices. Treated as a
// hard per-customer failure so bad data can never silently under-tag.
var ErrInvalidAmount = errors.New("invalid_order_amount")
