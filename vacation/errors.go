/*
errors.go - Centralized error types for the vacation engine

PURPOSE:
  All error types in one place. Callers match categories with errors.Is
  against the sentinels; structured types carry the context needed for
  display.

ERROR CATEGORIES:
  1. Validation errors   - malformed or inconsistent input
  2. Forbidden errors    - actor lacks the role or relationship to act
  3. Not-found errors    - entity id does not resolve
  4. Balance errors      - requested days exceed availability
  5. State errors        - operation forbidden by the request's status

None of these are transient: every error requires caller correction and is
never retried. Persistence failures are wrapped with %w and propagate
unchanged.
*/
package vacation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or inconsistent input,
	// such as an end date before the start date.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the actor lacks the role or
	// relationship required to act on the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when an entity id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientBalance is returned when requested days exceed the
	// computed availability.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidState is returned when an operation is attempted on a
	// request whose status forbids it.
	ErrInvalidState = errors.New("invalid request state")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field so callers can report it
// verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ForbiddenError records who attempted what.
type ForbiddenError struct {
	ActorID EmployeeID
	Action  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %s may not %s", e.ActorID, e.Action)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// InsufficientBalanceError carries the availability and the requested
// amount for display. Recoverable by choosing different dates.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Year       int
	Available  Days
	Requested  Days
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s in %d: available %s, requested %s",
		e.EmployeeID, e.Year, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidStateError reports the status that blocked the operation.
type InvalidStateError struct {
	RequestID RequestID
	Status    RequestStatus
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s request %s in status %s", e.Operation, e.RequestID, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to caller input rather
// than an engine or persistence failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidState)
}
