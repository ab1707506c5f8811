// Package admission implements the bot-defense gate in front of sensitive
// actions such as account registration.
//
// The client half asks a scoring collaborator for a one-time action token and
// fails open: no token means the check is skipped. The verification half
// trades the token for a score against a shared secret and admits at or
// above Threshold.
package admission

import (
	"fmt"

	dErrors "gatehouse/pkg/domain-errors"
)

// Threshold is the minimum score that admits an action.
const Threshold = 0.5

// Outcome is the final state of one admission attempt.
type Outcome string

const (
	Admitted Outcome = "admitted"
	Rejected Outcome = "rejected"
	Skipped  Outcome = "skipped"
)

// State is a step of one admission attempt.
type State string

const (
	StateNotRequested     State = "not_requested"
	StateTokenRequested   State = "token_requested"
	StateTokenObtained    State = "token_obtained"
	StateTokenUnavailable State = "token_unavailable"
	StateAdmitted         State = "admitted"
	StateRejected         State = "rejected"
	StateSkipped          State = "skipped"
)

// Decision is a computed admission score. It is never persisted.
type Decision struct {
	Outcome Outcome
	Score   float64
	Reason  string
	// Trace lists the states the attempt passed through.
	Trace []State
}

// Admit reports whether the action may proceed. Skipped decisions proceed.
func (d Decision) Admit() bool {
	return d.Outcome != Rejected
}

const (
	msgScoreTooLow        = "reCAPTCHA score too low"
	msgServiceUnavailable = "reCAPTCHA verification service unavailable"
	msgUnknownError       = "Unknown error"
	msgVerifyFailedPrefix = "reCAPTCHA verification failed: "
)

// RejectedError reports a rejected admission.
type RejectedError struct {
	Score  float64
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// Unwrap exposes the coded form so dErrors.HasCode(err, CodeAdmissionRejected)
// holds.
func (e *RejectedError) Unwrap() error {
	return dErrors.New(dErrors.CodeAdmissionRejected, e.Reason)
}

// GoString keeps the score visible in %#v output.
func (e *RejectedError) GoString() string {
	return fmt.Sprintf("admission.RejectedError{Score:%.2f, Reason:%q}", e.Score, e.Reason)
}
