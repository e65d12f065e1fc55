/*
availability.go - Availability calculation

PURPOSE:
  Derives how many vacation days an employee can still request in a year:

    planned   = sum of duration over approved AND employee-confirmed
                requests charged to that year
    available = max(initial - planned, 0)

  Pending requests are provisional and reserve nothing; two overlapping
  pending requests can both validate, and enforcement happens at approval
  time. The floor at zero keeps display and validation sane even if
  over-allocation ever occurred through a race.

  Because planned only counts approved requests, a Pending request never
  appears in its own availability check. Edit relies on exactly this:
  self-exclusion comes from status filtering, not identity comparison.
*/
package vacation

import (
	"context"
	"fmt"
)

// Availability is the balance view for one employee and year.
type Availability struct {
	EmployeeID EmployeeID
	Year       int
	Initial    Days
	Planned    Days
	Available  Days
}

// GetAvailability computes the availability snapshot. Lock-free: callers
// inside a mutating operation already hold the (employee, year) lock, and
// plain reads tolerate concurrent writers.
func (s *Service) GetAvailability(ctx context.Context, employeeID EmployeeID, year int) (*Availability, error) {
	emp, err := s.Directory.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("resolve employee: %w", err)
	}
	if emp == nil {
		return nil, fmt.Errorf("employee %s: %w", employeeID, ErrNotFound)
	}
	return s.availability(ctx, employeeID, year)
}

func (s *Service) availability(ctx context.Context, employeeID EmployeeID, year int) (*Availability, error) {
	record, err := s.Store.GetOrCreateBalance(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("load balance: %w", err)
	}

	consuming, err := s.Store.ListApprovedConfirmed(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("load planned requests: %w", err)
	}

	planned := ZeroDays
	for i := range consuming {
		planned = planned.Add(DaysOf(consuming[i].DurationDays()))
	}

	available := record.InitialDays.Sub(planned)
	if available.IsNegative() {
		available = ZeroDays
	}

	return &Availability{
		EmployeeID: employeeID,
		Year:       year,
		Initial:    record.InitialDays,
		Planned:    planned,
		Available:  available,
	}, nil
}
