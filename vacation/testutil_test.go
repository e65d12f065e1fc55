package vacation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/vacation"
)

// fixedClock pins time for deterministic tests.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time       { return c.now }
func (c fixedClock) Today() vacation.Date { return vacation.DateOf(c.now) }

// testNow is a Tuesday in the middle of the test year.
var testNow = time.Date(2026, time.June, 2, 10, 0, 0, 0, time.UTC)

const testYear = 2026

func newTestService(t *testing.T) (*vacation.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := vacation.NewService(store, store)
	svc.Clock = fixedClock{now: testNow}
	return svc, store
}

func seedEmployee(t *testing.T, store *memory.Store, username string, role vacation.Role, managerID *vacation.EmployeeID) vacation.Employee {
	t.Helper()
	emp := vacation.Employee{
		ID:        vacation.EmployeeID(uuid.NewString()),
		Username:  username,
		FirstName: username,
		LastName:  "Test",
		Role:      role,
		ManagerID: managerID,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, store.SaveEmployee(context.Background(), emp))
	return emp
}

func seedBalance(t *testing.T, store *memory.Store, employeeID vacation.EmployeeID, year, days int) {
	t.Helper()
	require.NoError(t, store.SaveBalance(context.Background(), vacation.BalanceRecord{
		EmployeeID:  employeeID,
		Year:        year,
		InitialDays: vacation.DaysOf(days),
	}))
}

// seedTeam creates the standard fixture: an employee reporting to a
// manager, plus one HR user. The employee has `days` for testYear.
func seedTeam(t *testing.T, store *memory.Store, days int) (employee, manager, hr vacation.Employee) {
	t.Helper()
	manager = seedEmployee(t, store, "manager", vacation.RoleManager, nil)
	employee = seedEmployee(t, store, "employee", vacation.RoleEmployee, &manager.ID)
	hr = seedEmployee(t, store, "hr", vacation.RoleHR, nil)
	seedBalance(t, store, employee.ID, testYear, days)
	return employee, manager, hr
}

func date(t *testing.T, s string) vacation.Date {
	t.Helper()
	d, err := vacation.ParseDate(s)
	require.NoError(t, err)
	return d
}

// seedRequest inserts a request directly, bypassing lifecycle rules, for
// availability and schedule tests that need arbitrary committed state.
func seedRequest(t *testing.T, store *memory.Store, employeeID vacation.EmployeeID, start, end vacation.Date, status vacation.RequestStatus, confirmed bool) vacation.VacationRequest {
	t.Helper()
	req := vacation.VacationRequest{
		ID:                  vacation.RequestID(uuid.NewString()),
		EmployeeID:          employeeID,
		StartDate:           start,
		EndDate:             end,
		Status:              status,
		ConfirmedByEmployee: confirmed,
		CreatedAt:           testNow,
		UpdatedAt:           testNow,
	}
	require.NoError(t, store.SaveRequest(context.Background(), &req))
	return req
}
