package appointment

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel wrapped by every TransitionError.
// Callers match it with errors.Is when they only care that a guard fired.
var ErrInvalidTransition = errors.New("appointment: invalid transition")

// Reason identifies which guard rejected a transition. The reason travels to
// the caller so the front desk can show a guard-specific explanation instead
// of a generic failure.
type Reason string

const (
	// ReasonWrongSourceState covers unknown targets and transitions whose
	// source state has no edge to the requested target.
	ReasonWrongSourceState Reason = "wrong_source_state"
	// ReasonCancellationWindow fires when an approved visit is canceled
	// less than the cancellation window before its date.
	ReasonCancellationWindow Reason = "cancellation_window"
	// ReasonIncompletePayload fires when a visit is closed without both
	// diagnosis and recommendations.
	ReasonIncompletePayload Reason = "incomplete_payload"
)

// TransitionError reports a rejected status change. It is a domain outcome,
// not a transport failure: the record was left untouched.
type TransitionError struct {
	From   Status
	To     Status
	Reason Reason
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("appointment: transition %s -> %s rejected: %s", e.From, e.To, e.Reason)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
