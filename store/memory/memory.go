// Package memory provides an in-memory Store and Directory implementation
// for tests and development.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex

	employees     map[vacation.EmployeeID]vacation.Employee
	employeeOrder []vacation.EmployeeID

	balances map[balanceKey]vacation.BalanceRecord

	requests     map[vacation.RequestID]vacation.VacationRequest
	requestOrder []vacation.RequestID

	notifications map[vacation.NotificationID]vacation.Notification
	notifOrder    []vacation.NotificationID
	notifSeen     map[notifKey]bool
}

type balanceKey struct {
	EmployeeID vacation.EmployeeID
	Year       int
}

type notifKey struct {
	EmployeeID vacation.EmployeeID
	RequestID  string
	Type       vacation.NotificationType
}

func New() *Store {
	return &Store{
		employees:     make(map[vacation.EmployeeID]vacation.Employee),
		balances:      make(map[balanceKey]vacation.BalanceRecord),
		requests:      make(map[vacation.RequestID]vacation.VacationRequest),
		notifications: make(map[vacation.NotificationID]vacation.Notification),
		notifSeen:     make(map[notifKey]bool),
	}
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) GetOrCreateBalance(_ context.Context, employeeID vacation.EmployeeID, year int) (*vacation.BalanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := balanceKey{EmployeeID: employeeID, Year: year}
	record, ok := s.balances[k]
	if !ok {
		record = vacation.BalanceRecord{EmployeeID: employeeID, Year: year, InitialDays: vacation.ZeroDays}
		s.balances[k] = record
	}
	out := record
	return &out, nil
}

func (s *Store) SaveBalance(_ context.Context, record vacation.BalanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{EmployeeID: record.EmployeeID, Year: record.Year}] = record
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) SaveRequest(_ context.Context, req *vacation.VacationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.ID]; !ok {
		s.requestOrder = append(s.requestOrder, req.ID)
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *Store) GetRequest(_ context.Context, id vacation.RequestID) (*vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	out := req
	return &out, nil
}

func (s *Store) ListRequestsByEmployee(_ context.Context, employeeID vacation.EmployeeID) ([]vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []vacation.VacationRequest
	for i := len(s.requestOrder) - 1; i >= 0; i-- {
		req := s.requests[s.requestOrder[i]]
		if req.EmployeeID == employeeID {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *Store) ListRequests(_ context.Context) ([]vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]vacation.VacationRequest, 0, len(s.requestOrder))
	for i := len(s.requestOrder) - 1; i >= 0; i-- {
		result = append(result, s.requests[s.requestOrder[i]])
	}
	return result, nil
}

func (s *Store) ListApprovedByYear(_ context.Context, year int) ([]vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []vacation.VacationRequest
	for _, id := range s.requestOrder {
		req := s.requests[id]
		if req.Status == vacation.StatusApproved && req.Year() == year {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *Store) ListApprovedConfirmed(_ context.Context, employeeID vacation.EmployeeID, year int) ([]vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []vacation.VacationRequest
	for _, id := range s.requestOrder {
		req := s.requests[id]
		if req.EmployeeID == employeeID &&
			req.Status == vacation.StatusApproved &&
			req.ConfirmedByEmployee &&
			req.Year() == year {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *Store) ListApprovedConfirmedStarting(_ context.Context, on vacation.Date) ([]vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []vacation.VacationRequest
	for _, id := range s.requestOrder {
		req := s.requests[id]
		if req.Status == vacation.StatusApproved &&
			req.ConfirmedByEmployee &&
			req.StartDate.Equal(on) {
			result = append(result, req)
		}
	}
	return result, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (s *Store) AddNotification(_ context.Context, n vacation.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(n)
	return nil
}

func (s *Store) AddNotificationIfAbsent(_ context.Context, n vacation.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notifSeen[keyOf(n)] {
		return false, nil
	}
	s.addLocked(n)
	return true, nil
}

func (s *Store) addLocked(n vacation.Notification) {
	s.notifications[n.ID] = n
	s.notifOrder = append(s.notifOrder, n.ID)
	s.notifSeen[keyOf(n)] = true
}

func keyOf(n vacation.Notification) notifKey {
	k := notifKey{EmployeeID: n.EmployeeID, Type: n.Type}
	if n.RequestID != nil {
		k.RequestID = string(*n.RequestID)
	}
	return k
}

func (s *Store) ListNotifications(_ context.Context, employeeID vacation.EmployeeID) ([]vacation.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []vacation.Notification
	for i := len(s.notifOrder) - 1; i >= 0; i-- {
		n := s.notifications[s.notifOrder[i]]
		if n.EmployeeID == employeeID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (s *Store) CountUnread(_ context.Context, employeeID vacation.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.EmployeeID == employeeID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id vacation.NotificationID) (*vacation.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, nil
	}
	n.IsRead = true
	s.notifications[id] = n
	out := n
	return &out, nil
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, e vacation.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[e.ID]; !ok {
		s.employeeOrder = append(s.employeeOrder, e.ID)
	}
	s.employees[e.ID] = e
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id vacation.EmployeeID) (*vacation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	out := e
	return &out, nil
}

func (s *Store) GetEmployeeByUsername(_ context.Context, username string) (*vacation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.employeeOrder {
		e := s.employees[id]
		if strings.EqualFold(e.Username, username) {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]vacation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]vacation.Employee, 0, len(s.employeeOrder))
	for _, id := range s.employeeOrder {
		result = append(result, s.employees[id])
	}
	return result, nil
}

func (s *Store) ListByRole(_ context.Context, role vacation.Role) ([]vacation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []vacation.Employee
	for _, id := range s.employeeOrder {
		if s.employees[id].Role == role {
			result = append(result, s.employees[id])
		}
	}
	return result, nil
}
