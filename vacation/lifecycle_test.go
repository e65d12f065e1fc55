package vacation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// CREATE
// =============================================================================

func TestCreateRequest(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	assert.Equal(t, vacation.StatusPending, req.Status)
	assert.False(t, req.ConfirmedByEmployee)
	assert.Equal(t, 5, req.DurationDays())
	assert.Equal(t, testNow, req.CreatedAt)

	// No notification on create.
	list, err := store.ListNotifications(ctx, employee.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRequest_SingleDay(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 20)

	req, err := svc.CreateRequest(context.Background(), employee.ID, date(t, "2026-07-06"), date(t, "2026-07-06"))
	require.NoError(t, err)
	assert.Equal(t, 1, req.DurationDays())
}

func TestCreateRequest_EndBeforeStart(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 20)

	_, err := svc.CreateRequest(context.Background(), employee.ID, date(t, "2026-07-10"), date(t, "2026-07-06"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vacation.ErrValidation)

	var verr *vacation.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "end_date", verr.Field)
}

func TestCreateRequest_MissingDates(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 20)

	_, err := svc.CreateRequest(context.Background(), employee.ID, vacation.Date{}, date(t, "2026-07-06"))
	assert.ErrorIs(t, err, vacation.ErrValidation)

	_, err = svc.CreateRequest(context.Background(), employee.ID, date(t, "2026-07-06"), vacation.Date{})
	assert.ErrorIs(t, err, vacation.ErrValidation)
}

func TestCreateRequest_UnknownEmployee(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateRequest(context.Background(), "nobody", date(t, "2026-07-06"), date(t, "2026-07-10"))
	assert.ErrorIs(t, err, vacation.ErrNotFound)
}

func TestCreateRequest_InsufficientBalance(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 10)
	ctx := context.Background()

	// 15 days against 10 available.
	_, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-01"), date(t, "2026-07-15"))
	require.Error(t, err)
	assert.ErrorIs(t, err, vacation.ErrInsufficientBalance)

	var berr *vacation.InsufficientBalanceError
	require.True(t, errors.As(err, &berr))
	assert.True(t, berr.Available.Equal(vacation.DaysOf(10)), "available = %s", berr.Available)
	assert.True(t, berr.Requested.Equal(vacation.DaysOf(15)), "requested = %s", berr.Requested)

	// Nothing persisted.
	list, err := store.ListRequestsByEmployee(ctx, employee.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// Pending requests reserve nothing: two requests that together exceed the
// allotment may both sit pending, and only approval + confirmation
// consumes days.
func TestPendingReservesNothing(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	first, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-01"), date(t, "2026-07-15"))
	require.NoError(t, err)

	// 15 + 15 > 20, still accepted while the first is pending.
	_, err = svc.CreateRequest(ctx, employee.ID, date(t, "2026-08-01"), date(t, "2026-08-15"))
	require.NoError(t, err)

	// Approving and confirming the first commits 15 of 20 days.
	_, err = svc.ApproveRequest(ctx, first.ID, manager.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmRequest(ctx, first.ID, employee.ID)
	require.NoError(t, err)

	avail, err := svc.GetAvailability(ctx, employee.ID, testYear)
	require.NoError(t, err)
	assert.True(t, avail.Planned.Equal(vacation.DaysOf(15)))
	assert.True(t, avail.Available.Equal(vacation.DaysOf(5)))

	// A third request for more than the remaining 5 days now fails.
	_, err = svc.CreateRequest(ctx, employee.ID, date(t, "2026-09-01"), date(t, "2026-09-10"))
	assert.ErrorIs(t, err, vacation.ErrInsufficientBalance)
}

// Full walk: pending leaves availability untouched, approval plus
// confirmation commits the days, and the next oversized request fails
// with the exact remaining amount.
func TestRequestWalkthrough(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-06-01"), date(t, "2026-06-10"))
	require.NoError(t, err)
	assert.Equal(t, 10, req.DurationDays())

	avail, err := svc.GetAvailability(ctx, employee.ID, testYear)
	require.NoError(t, err)
	assert.True(t, avail.Available.Equal(vacation.DaysOf(20)), "pending reserves nothing")

	_, err = svc.ApproveRequest(ctx, req.ID, manager.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmRequest(ctx, req.ID, employee.ID)
	require.NoError(t, err)

	avail, err = svc.GetAvailability(ctx, employee.ID, testYear)
	require.NoError(t, err)
	assert.True(t, avail.Planned.Equal(vacation.DaysOf(10)))
	assert.True(t, avail.Available.Equal(vacation.DaysOf(10)))

	_, err = svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-01"), date(t, "2026-07-15"))
	var berr *vacation.InsufficientBalanceError
	require.True(t, errors.As(err, &berr))
	assert.True(t, berr.Available.Equal(vacation.DaysOf(10)))
	assert.True(t, berr.Requested.Equal(vacation.DaysOf(15)))
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

func TestApproveRequest(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	approved, err := svc.ApproveRequest(ctx, req.ID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, vacation.StatusApproved, approved.Status)

	// Employee got the approval notification.
	list, err := store.ListNotifications(ctx, employee.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, vacation.NotificationApproved, list[0].Type)
	require.NotNil(t, list[0].RequestID)
	assert.Equal(t, req.ID, *list[0].RequestID)
}

func TestRejectRequest(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	rejected, err := svc.RejectRequest(ctx, req.ID, manager.ID)
	require.NoError(t, err)
	assert.Equal(t, vacation.StatusRejected, rejected.Status)

	list, err := store.ListNotifications(ctx, employee.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, vacation.NotificationRejected, list[0].Type)

	// A rejected request never consumes balance, even if confirmed.
	_, err = svc.ConfirmRequest(ctx, req.ID, employee.ID)
	require.NoError(t, err)
	avail, err := svc.GetAvailability(ctx, employee.ID, testYear)
	require.NoError(t, err)
	assert.True(t, avail.Available.Equal(vacation.DaysOf(20)))
}

func TestApproveRequest_NotTheManager(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, hr := seedTeam(t, store, 20)
	other := seedEmployee(t, store, "othermanager", vacation.RoleManager, nil)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	// Neither a different manager, nor HR, nor the employee themselves.
	for _, actor := range []vacation.EmployeeID{other.ID, hr.ID, employee.ID} {
		_, err = svc.ApproveRequest(ctx, req.ID, actor)
		assert.ErrorIs(t, err, vacation.ErrForbidden)
	}

	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, vacation.StatusPending, got.Status)
}

func TestApproveRequest_NoManagerAssigned(t *testing.T) {
	svc, store := newTestService(t)
	manager := seedEmployee(t, store, "manager", vacation.RoleManager, nil)
	orphan := seedEmployee(t, store, "orphan", vacation.RoleEmployee, nil)
	seedBalance(t, store, orphan.ID, testYear, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, orphan.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	// Nobody can approve a request of an employee without a manager.
	_, err = svc.ApproveRequest(ctx, req.ID, manager.ID)
	assert.ErrorIs(t, err, vacation.ErrForbidden)
}

// Terminal statuses stay terminal.
func TestDecide_TerminalGuard(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	_, err = svc.ApproveRequest(ctx, req.ID, manager.ID)
	require.NoError(t, err)

	_, err = svc.ApproveRequest(ctx, req.ID, manager.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, vacation.ErrInvalidState)

	var serr *vacation.InvalidStateError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, vacation.StatusApproved, serr.Status)

	_, err = svc.RejectRequest(ctx, req.ID, manager.ID)
	assert.ErrorIs(t, err, vacation.ErrInvalidState)
}

func TestDecide_UnknownRequest(t *testing.T) {
	svc, store := newTestService(t)
	_, manager, _ := seedTeam(t, store, 20)

	_, err := svc.ApproveRequest(context.Background(), "missing", manager.ID)
	assert.ErrorIs(t, err, vacation.ErrNotFound)
}

// =============================================================================
// EDIT
// =============================================================================

func TestEditRequest(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	edited, err := svc.EditRequest(ctx, req.ID, employee.ID, date(t, "2026-08-03"), date(t, "2026-08-07"))
	require.NoError(t, err)
	assert.Equal(t, "2026-08-03", edited.StartDate.String())
	assert.Equal(t, "2026-08-07", edited.EndDate.String())
	assert.Equal(t, vacation.StatusPending, edited.Status)

	// The manager is told about the reschedule.
	list, err := store.ListNotifications(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, vacation.NotificationRescheduled, list[0].Type)
}

// A pending request never counts toward planned days, so rescheduling a
// request whose span equals the whole allotment must not collide with
// itself.
func TestEditRequest_SelfExclusion(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 10)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-01"), date(t, "2026-07-10"))
	require.NoError(t, err)

	_, err = svc.EditRequest(ctx, req.ID, employee.ID, date(t, "2026-08-01"), date(t, "2026-08-10"))
	require.NoError(t, err)
}

func TestEditRequest_NotOwner(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	_, err = svc.EditRequest(ctx, req.ID, manager.ID, date(t, "2026-08-03"), date(t, "2026-08-07"))
	assert.ErrorIs(t, err, vacation.ErrForbidden)
}

func TestEditRequest_NotPending(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)
	_, err = svc.ApproveRequest(ctx, req.ID, manager.ID)
	require.NoError(t, err)

	_, err = svc.EditRequest(ctx, req.ID, employee.ID, date(t, "2026-08-03"), date(t, "2026-08-07"))
	assert.ErrorIs(t, err, vacation.ErrInvalidState)
}

func TestEditRequest_BalanceChecked(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 10)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	// Growing the range past the allotment fails and leaves the request
	// untouched.
	_, err = svc.EditRequest(ctx, req.ID, employee.ID, date(t, "2026-07-01"), date(t, "2026-07-15"))
	assert.ErrorIs(t, err, vacation.ErrInsufficientBalance)

	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-06", got.StartDate.String())
}

// =============================================================================
// CONFIRM
// =============================================================================

func TestConfirmRequest_Idempotent(t *testing.T) {
	svc, store := newTestService(t)
	employee, _, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	first, err := svc.ConfirmRequest(ctx, req.ID, employee.ID)
	require.NoError(t, err)
	assert.True(t, first.ConfirmedByEmployee)

	second, err := svc.ConfirmRequest(ctx, req.ID, employee.ID)
	require.NoError(t, err)
	assert.True(t, second.ConfirmedByEmployee)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestConfirmRequest_NotOwner(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-07-06"), date(t, "2026-07-10"))
	require.NoError(t, err)

	_, err = svc.ConfirmRequest(ctx, req.ID, manager.ID)
	assert.ErrorIs(t, err, vacation.ErrForbidden)
}

// =============================================================================
// YEAR BOUNDARY
// =============================================================================

// A range crossing December 31 is charged entirely to the start year.
func TestYearBoundaryChargedToStartYear(t *testing.T) {
	svc, store := newTestService(t)
	employee, manager, _ := seedTeam(t, store, 20)
	seedBalance(t, store, employee.ID, testYear+1, 20)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-12-28"), date(t, "2027-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 7, req.DurationDays())
	assert.Equal(t, testYear, req.Year())

	_, err = svc.ApproveRequest(ctx, req.ID, manager.ID)
	require.NoError(t, err)
	_, err = svc.ConfirmRequest(ctx, req.ID, employee.ID)
	require.NoError(t, err)

	thisYear, err := svc.GetAvailability(ctx, employee.ID, testYear)
	require.NoError(t, err)
	assert.True(t, thisYear.Planned.Equal(vacation.DaysOf(7)))
	assert.True(t, thisYear.Available.Equal(vacation.DaysOf(13)))

	nextYear, err := svc.GetAvailability(ctx, employee.ID, testYear+1)
	require.NoError(t, err)
	assert.True(t, nextYear.Planned.IsZero())
	assert.True(t, nextYear.Available.Equal(vacation.DaysOf(20)))
}
