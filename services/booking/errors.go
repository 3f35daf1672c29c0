package booking

import (
	"errors"
	"fmt"

	"tourvia/models"
)

// Wire codes for the error taxonomy, shared by the HTTP handlers and the
// remote committer client so both sides agree on the corrective action.
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeTransitionRejected = "TRANSITION_REJECTED"
	ErrCodeTransferNotFound   = "TRANSFER_NOT_FOUND"
	ErrCodeNotFound           = "BOOKING_NOT_FOUND"
	ErrCodeTransient          = "TRANSIENT_FAILURE"
)

// ErrReconciliationNotFound is the expected steady-state outcome while a
// refund transfer has not yet settled. Recoverable by construction: the poller
// retries it until success or budget exhaustion.
var ErrReconciliationNotFound = errors.New("refund transfer not yet detected")

// ErrBookingNotFound is returned when no booking matches the given identity.
var ErrBookingNotFound = errors.New("booking not found")

// ValidationError reports a missing or malformed field caught before any
// network or database call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransitionRejectedError means the booking is not in a state that permits the
// requested transition. Fatal for the request; never retried automatically.
type TransitionRejectedError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e *TransitionRejectedError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

// IsTransitionRejected reports whether err is a TransitionRejectedError.
func IsTransitionRejected(err error) bool {
	var tr *TransitionRejectedError
	return errors.As(err, &tr)
}

// TransientError wraps a connectivity or server fault. The poller retries it
// within the same attempt budget as a not-found result, but surfaces it
// distinctly when it is the terminal outcome.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
