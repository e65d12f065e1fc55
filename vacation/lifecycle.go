/*
lifecycle.go - Request state machine

PURPOSE:
  Implements the five mutating operations of the engine:

    Create   -> inserts a Pending, unconfirmed request
    Edit     -> owner changes the date range while Pending
    Confirm  -> owner sets confirmed_by_employee (idempotent)
    Approve  -> employee's manager; Pending -> Approved (terminal)
    Reject   -> employee's manager; Pending -> Rejected (terminal)

STATE MACHINE:

    Pending ──approve──▶ Approved (terminal)
       │
       └────reject────▶ Rejected (terminal)

  confirmed_by_employee is orthogonal to status: it may be set at any
  point after creation and never resets.

CONCURRENCY:
  Each mutating operation runs as an atomic read-check-write under the
  (employee, start-year) key lock, so two concurrent operations for the
  same balance year cannot both validate against a stale planned sum.
  The request is re-read inside the lock before any check that depends
  on its state. Because an edit can move a pending request into another
  start year, Confirm and Approve/Reject verify that the key they hold
  still matches the year read under the lock, re-acquiring until stable.

SIDE EFFECTS:
  Approve/Reject notify the employee; a successful Edit notifies the
  employee's manager, if any. Create deliberately emits nothing.

SEE ALSO:
  - availability.go: the balance check used by Create and Edit
  - notify.go: notification construction and the reminder sweep
*/
package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// =============================================================================
// CLOCK
// =============================================================================

// Clock supplies "now" and "today" so tests and the reminder sweep can pin
// time.
type Clock interface {
	Now() time.Time
	Today() Date
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
func (systemClock) Today() Date    { return DateOf(time.Now()) }

// SystemClock is the wall-clock implementation used outside tests.
var SystemClock Clock = systemClock{}

// =============================================================================
// SERVICE
// =============================================================================

// Service is the engine facade. Construct with NewService; the exported
// fields may be replaced before first use.
type Service struct {
	Store     Store
	Directory Directory
	Clock     Clock
	Log       zerolog.Logger

	locks keyedMutex
}

func NewService(store Store, directory Directory) *Service {
	return &Service{
		Store:     store,
		Directory: directory,
		Clock:     SystemClock,
		Log:       zerolog.Nop(),
	}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateRequest validates the date range and availability, then inserts a
// Pending, unconfirmed request. No notification is emitted on create.
func (s *Service) CreateRequest(ctx context.Context, employeeID EmployeeID, start, end Date) (*VacationRequest, error) {
	emp, err := s.Directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("resolve employee: %w", err)
	}
	if emp == nil {
		return nil, fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}

	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	year := start.Year()
	unlock := s.locks.Lock(balanceKey(employeeID, year))
	defer unlock()

	if err := s.checkBalance(ctx, employeeID, year, SpanDays(start, end)); err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	req := &VacationRequest{
		ID:         RequestID(uuid.NewString()),
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	s.Log.Info().
		Str("request_id", string(req.ID)).
		Str("employee_id", string(employeeID)).
		Str("start", start.String()).
		Str("end", end.String()).
		Msg("vacation request created")

	return req, nil
}

// =============================================================================
// EDIT
// =============================================================================

// EditRequest changes the date range of the actor's own Pending request.
// The availability check runs against the new start year; the request
// itself is excluded implicitly because a Pending request never counts
// toward planned days. On success the employee's manager, if any, receives
// a Rescheduled notification.
func (s *Service) EditRequest(ctx context.Context, requestID RequestID, actorID EmployeeID, newStart, newEnd Date) (*VacationRequest, error) {
	req, err := s.resolveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID != actorID {
		return nil, &ForbiddenError{ActorID: actorID, Action: "edit this request"}
	}

	if err := validateRange(newStart, newEnd); err != nil {
		return nil, err
	}

	year := newStart.Year()
	unlock := s.locks.Lock(balanceKey(req.EmployeeID, year))
	defer unlock()

	// Re-read inside the lock; a concurrent approval may have landed.
	req, err = s.resolveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &InvalidStateError{RequestID: requestID, Status: req.Status, Operation: "edit"}
	}

	if err := s.checkBalance(ctx, req.EmployeeID, year, SpanDays(newStart, newEnd)); err != nil {
		return nil, err
	}

	req.StartDate = newStart
	req.EndDate = newEnd
	req.UpdatedAt = s.Clock.Now()

	if err := s.Store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	emp, err := s.Directory.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("resolve employee: %w", err)
	}
	if emp != nil && emp.ManagerID != nil {
		if err := s.notify(ctx, *emp.ManagerID, NotificationRescheduled, req.ID); err != nil {
			return nil, err
		}
	}

	s.Log.Info().
		Str("request_id", string(req.ID)).
		Str("employee_id", string(req.EmployeeID)).
		Str("start", newStart.String()).
		Str("end", newEnd.String()).
		Msg("vacation request rescheduled")

	return req, nil
}

// =============================================================================
// CONFIRM
// =============================================================================

// ConfirmRequest marks the actor's own request as employee-confirmed.
// Idempotent: confirming an already-confirmed request is a no-op success.
func (s *Service) ConfirmRequest(ctx context.Context, requestID RequestID, actorID EmployeeID) (*VacationRequest, error) {
	req, err := s.resolveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID != actorID {
		return nil, &ForbiddenError{ActorID: actorID, Action: "confirm this request"}
	}

	// Confirmation changes the planned sum of the request's year once the
	// request is approved, so it runs under the same key as Approve.
	req, unlock, err := s.lockRequestYear(ctx, requestID, req.EmployeeID, req.Year())
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.ConfirmedByEmployee {
		return req, nil
	}

	req.ConfirmedByEmployee = true
	req.UpdatedAt = s.Clock.Now()

	if err := s.Store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	s.Log.Info().
		Str("request_id", string(req.ID)).
		Str("employee_id", string(req.EmployeeID)).
		Msg("vacation request confirmed by employee")

	return req, nil
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

// ApproveRequest transitions a Pending request to Approved. Only the
// manager of the request's employee may approve. The employee is notified.
func (s *Service) ApproveRequest(ctx context.Context, requestID RequestID, actorID EmployeeID) (*VacationRequest, error) {
	return s.decide(ctx, requestID, actorID, StatusApproved, NotificationApproved, "approve")
}

// RejectRequest transitions a Pending request to Rejected. Only the
// manager of the request's employee may reject. The employee is notified.
func (s *Service) RejectRequest(ctx context.Context, requestID RequestID, actorID EmployeeID) (*VacationRequest, error) {
	return s.decide(ctx, requestID, actorID, StatusRejected, NotificationRejected, "reject")
}

func (s *Service) decide(ctx context.Context, requestID RequestID, actorID EmployeeID, status RequestStatus, notifType NotificationType, op string) (*VacationRequest, error) {
	req, err := s.resolveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	emp, err := s.Directory.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("resolve employee: %w", err)
	}
	if emp == nil {
		return nil, fmt.Errorf("employee %s: %w", req.EmployeeID, ErrNotFound)
	}
	if emp.ManagerID == nil || *emp.ManagerID != actorID {
		return nil, &ForbiddenError{ActorID: actorID, Action: op + " this request"}
	}

	req, unlock, err := s.lockRequestYear(ctx, requestID, req.EmployeeID, req.Year())
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Terminal statuses stay terminal: no re-approve, no un-approve.
	if req.Status != StatusPending {
		return nil, &InvalidStateError{RequestID: requestID, Status: req.Status, Operation: op}
	}

	req.Status = status
	req.UpdatedAt = s.Clock.Now()

	if err := s.Store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	if err := s.notify(ctx, req.EmployeeID, notifType, req.ID); err != nil {
		return nil, err
	}

	s.Log.Info().
		Str("request_id", string(req.ID)).
		Str("employee_id", string(req.EmployeeID)).
		Str("actor_id", string(actorID)).
		Str("status", string(status)).
		Msg("vacation request decided")

	return req, nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// lockRequestYear acquires the (employee, start-year) key for the
// request's current year. The year passed in comes from a read made
// before any lock was held, and a concurrent edit may have moved the
// request into another year in that window; re-read under the lock and
// re-acquire until the key held matches the year observed.
func (s *Service) lockRequestYear(ctx context.Context, requestID RequestID, employeeID EmployeeID, year int) (*VacationRequest, func(), error) {
	for {
		unlock := s.locks.Lock(balanceKey(employeeID, year))

		req, err := s.resolveRequest(ctx, requestID)
		if err != nil {
			unlock()
			return nil, nil, err
		}
		if req.Year() == year {
			return req, unlock, nil
		}

		unlock()
		year = req.Year()
	}
}

func (s *Service) resolveRequest(ctx context.Context, id RequestID) (*VacationRequest, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	return req, nil
}

// checkBalance fails with InsufficientBalanceError when the requested span
// exceeds current availability. Must run under the (employee, year) lock.
func (s *Service) checkBalance(ctx context.Context, employeeID EmployeeID, year, requestedDays int) error {
	avail, err := s.availability(ctx, employeeID, year)
	if err != nil {
		return err
	}
	requested := DaysOf(requestedDays)
	if requested.GreaterThan(avail.Available) {
		return &InsufficientBalanceError{
			EmployeeID: employeeID,
			Year:       year,
			Available:  avail.Available,
			Requested:  requested,
		}
	}
	return nil
}

func validateRange(start, end Date) error {
	if start.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "required"}
	}
	if end.IsZero() {
		return &ValidationError{Field: "end_date", Reason: "required"}
	}
	if end.Before(start) {
		return &ValidationError{Field: "end_date", Reason: "must not be before start_date"}
	}
	return nil
}
