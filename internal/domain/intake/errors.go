package intake

import (
	"errors"
	"fmt"
)

// ErrNoPendingMedications means a snooze was requested for a batch with
// nothing left to snooze; no network call is made in that case.
var ErrNoPendingMedications = errors.New("no pending medications to snooze")

// ErrConfirmationRequired guards the Taken -> Missed transition: it undoes
// a completed action whose stock deduction already happened server-side.
var ErrConfirmationRequired = errors.New("reverting a taken dose to missed requires confirmation")

// InvalidTransitionError reports a status change outside the allowed
// state machine.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid intake transition %s -> %s", e.From, e.To)
}

// BusinessError is a server-side rejection that arrived on a successful
// transport exchange (success=false envelope), e.g. insufficient stock.
type BusinessError struct {
	Code    string
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend rejected request (%s)", e.Code)
}

// ResolutionError wraps a failed reminder resolve. Callers must offer a
// retry rather than fall back to the stale cache: transitions may only be
// offered against server truth.
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve reminder batch: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
