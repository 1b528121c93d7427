package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy: validation, state conflict, not found, provider, config.
// Validation and state-conflict errors go straight back to the caller;
// provider errors are logged with full context and surfaced generically.

var (
	ErrNotFound          = errors.New("resource not found")
	ErrNoActiveConfig    = errors.New("merchant has no active payment configuration")
	ErrLivePaymentExists = errors.New("order already has a payment in progress")
	ErrInvalidSignature  = errors.New("callback signature verification failed")
)

// ValidationError rejects malformed input before any persistence.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StateConflictError rejects an operation that is not valid for the entity's
// current state, surfacing that state to the caller.
type StateConflictError struct {
	Entity  string
	Op      string
	Current string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s cannot %s in state %s", e.Entity, e.Op, e.Current)
}

func NewStateConflictError(entity, op, current string) *StateConflictError {
	return &StateConflictError{Entity: entity, Op: op, Current: current}
}

func IsStateConflictError(err error) bool {
	var se *StateConflictError
	return errors.As(err, &se)
}

// ItemUnavailableError rejects an order operation because an item's slot is
// taken or the item is not rentable.
type ItemUnavailableError struct {
	ItemID int64
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("item %d is no longer available for the requested dates", e.ItemID)
}

func IsItemUnavailableError(err error) bool {
	var ie *ItemUnavailableError
	return errors.As(err, &ie)
}

// ProviderError wraps a payment-provider failure. The wrapped cause is for
// logs only; callers see the generic message, never provider internals.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string { return "payment processing failed" }

func (e *ProviderError) Unwrap() error { return e.Err }

func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}

func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
