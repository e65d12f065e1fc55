/*
schedule.go - Read-only projections over committed request state

PURPOSE:
  Groups approved requests into a per-employee schedule for a year,
  optionally restricted to one manager's team. Also hosts the request
  listings the manager and HR views read. Never mutates lifecycle state.
*/
package vacation

import (
	"context"
	"fmt"
	"sort"
)

// SchedulePeriod is one approved vacation period in the schedule view.
type SchedulePeriod struct {
	RequestID    RequestID
	StartDate    Date
	EndDate      Date
	DurationDays int
	Confirmed    bool
}

// ScheduleEntry groups one employee's approved periods for the year.
type ScheduleEntry struct {
	Employee Employee
	Periods  []SchedulePeriod
}

// ListSchedule returns the approved schedule for a year. Employees appear
// in first-seen order of their requests; each employee's periods are
// sorted by start date. managerFilter, when non-nil, restricts the view to
// employees reporting to that manager.
func (s *Service) ListSchedule(ctx context.Context, year int, managerFilter *EmployeeID) ([]ScheduleEntry, error) {
	approved, err := s.Store.ListApprovedByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list approved requests: %w", err)
	}

	employees := make(map[EmployeeID]*Employee)
	index := make(map[EmployeeID]int)
	var entries []ScheduleEntry

	for i := range approved {
		req := &approved[i]

		emp, ok := employees[req.EmployeeID]
		if !ok {
			if emp, err = s.Directory.GetEmployee(ctx, req.EmployeeID); err != nil {
				return nil, fmt.Errorf("resolve employee: %w", err)
			}
			employees[req.EmployeeID] = emp
		}
		if emp == nil {
			continue
		}
		if managerFilter != nil && (emp.ManagerID == nil || *emp.ManagerID != *managerFilter) {
			continue
		}

		pos, ok := index[req.EmployeeID]
		if !ok {
			pos = len(entries)
			index[req.EmployeeID] = pos
			entries = append(entries, ScheduleEntry{Employee: *emp})
		}

		entries[pos].Periods = append(entries[pos].Periods, SchedulePeriod{
			RequestID:    req.ID,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			DurationDays: req.DurationDays(),
			Confirmed:    req.ConfirmedByEmployee,
		})
	}

	for i := range entries {
		periods := entries[i].Periods
		sort.Slice(periods, func(a, b int) bool {
			return periods[a].StartDate.Before(periods[b].StartDate)
		})
	}

	return entries, nil
}

// EmployeeRequests returns one employee's requests, newest first.
func (s *Service) EmployeeRequests(ctx context.Context, employeeID EmployeeID) ([]VacationRequest, error) {
	return s.Store.ListRequestsByEmployee(ctx, employeeID)
}

// TeamRequests returns the requests of every employee reporting to the
// given manager, newest first.
func (s *Service) TeamRequests(ctx context.Context, managerID EmployeeID) ([]VacationRequest, error) {
	all, err := s.Store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	members := make(map[EmployeeID]bool)
	employees, err := s.Directory.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	for i := range employees {
		if employees[i].ManagerID != nil && *employees[i].ManagerID == managerID {
			members[employees[i].ID] = true
		}
	}

	var team []VacationRequest
	for _, req := range all {
		if members[req.EmployeeID] {
			team = append(team, req)
		}
	}
	return team, nil
}

// AllRequests returns every request, newest first. HR view.
func (s *Service) AllRequests(ctx context.Context) ([]VacationRequest, error) {
	return s.Store.ListRequests(ctx)
}
