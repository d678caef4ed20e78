package errors

import (
	"fmt"
	"time"
)

// ErrNotFound is returned when a resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation is returned when required input is missing or malformed.
// No mutation has been applied when it is returned.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrInvalidStateTransition is returned when a status change is not allowed
type ErrInvalidStateTransition struct {
	From interface{}
	To   interface{}
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %v to %v", e.From, e.To)
}

// ErrAlreadyLogged is returned when a call attempt has already been recorded
type ErrAlreadyLogged struct {
	Day     int
	Attempt int
}

func (e *ErrAlreadyLogged) Error() string {
	return fmt.Sprintf("call attempt %d of day %d is already logged", e.Attempt, e.Day)
}

// ErrOutOfSequence is returned when a call attempt skips a number
type ErrOutOfSequence struct {
	Day      int
	Expected int
	Got      int
}

func (e *ErrOutOfSequence) Error() string {
	return fmt.Sprintf("call attempt out of sequence for day %d: expected %d, got %d", e.Day, e.Expected, e.Got)
}

// ErrCooldown is returned when a call attempt is logged too soon after the previous one
type ErrCooldown struct {
	Remaining time.Duration
}

func (e *ErrCooldown) Error() string {
	return fmt.Sprintf("call attempt cooldown active, retry in %s", e.Remaining.Round(time.Second))
}

// ErrDayLocked is returned when a later call day is not yet open
type ErrDayLocked struct {
	Day    int
	Reason string
}

func (e *ErrDayLocked) Error() string {
	return fmt.Sprintf("call day %d is locked: %s", e.Day, e.Reason)
}

// ErrCarrierAuth is returned when the carrier rejects the login
type ErrCarrierAuth struct {
	Message string
}

func (e *ErrCarrierAuth) Error() string {
	return fmt.Sprintf("carrier authentication failed: %s", e.Message)
}

// ErrCarrierValidation is returned when a carrier payload fails pre-flight
// validation, or when the carrier accepts a delivery but omits its
// identifier, which points at an address or field defect.
type ErrCarrierValidation struct {
	Message string
}

func (e *ErrCarrierValidation) Error() string {
	return fmt.Sprintf("carrier validation failed: %s", e.Message)
}

// ErrCarrier is returned when the carrier answers with a non-zero status code
type ErrCarrier struct {
	Code    int
	Message string
}

func (e *ErrCarrier) Error() string {
	return fmt.Sprintf("carrier error %d: %s", e.Code, e.Message)
}

// ErrNoEligibleOrders is returned when a batch has nothing left after filtering
type ErrNoEligibleOrders struct {
	Operation string
}

func (e *ErrNoEligibleOrders) Error() string {
	return fmt.Sprintf("no eligible orders for %s", e.Operation)
}

// ErrPersistence wraps a store failure. The operation is considered failed
// even when the carrier call before it succeeded.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

// ErrConcurrencyConflict is returned when a record changed since it was read
type ErrConcurrencyConflict struct {
	Resource string
	ID       string
}

func (e *ErrConcurrencyConflict) Error() string {
	return fmt.Sprintf("%s %s was modified by another operator", e.Resource, e.ID)
}

// ErrUnauthorized is returned when the caller cannot be authenticated
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}
