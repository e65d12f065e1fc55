/*
store.go - Persistence and directory interfaces

PURPOSE:
  Defines the interface between the engine and its environment. The engine
  consumes an employee directory and a store for balances, requests, and
  notifications; store/memory and store/sqlite implement both.

CONTRACTS:
  - Get* methods return (nil, nil) when the entity does not exist.
  - GetOrCreateBalance materializes a zero record on first access and must
    be safe to call concurrently for the same (employee, year).
  - AddNotificationIfAbsent is the detect-then-skip primitive that makes
    the reminder sweep idempotent: one notification per
    (recipient, request, type) tuple.
  - List methods return copies; mutating a returned slice never affects
    stored state.

SEE ALSO:
  - store/memory: map-backed implementation for tests and development
  - store/sqlite: SQLite implementation
*/
package vacation

import "context"

// Store persists balances, requests, and notifications.
type Store interface {
	// GetOrCreateBalance returns the balance record for (employee, year),
	// creating a zero record on first access.
	GetOrCreateBalance(ctx context.Context, employeeID EmployeeID, year int) (*BalanceRecord, error)

	// SaveBalance upserts an allotment. Used by the external seeding
	// process only; the engine never writes balances.
	SaveBalance(ctx context.Context, record BalanceRecord) error

	// SaveRequest inserts or updates a request by id.
	SaveRequest(ctx context.Context, req *VacationRequest) error

	// GetRequest returns a request by id, or (nil, nil).
	GetRequest(ctx context.Context, id RequestID) (*VacationRequest, error)

	// ListRequestsByEmployee returns all requests of one employee,
	// newest first.
	ListRequestsByEmployee(ctx context.Context, employeeID EmployeeID) ([]VacationRequest, error)

	// ListRequests returns all requests, newest first.
	ListRequests(ctx context.Context) ([]VacationRequest, error)

	// ListApprovedByYear returns approved requests whose start date falls
	// in the given year, in insertion order.
	ListApprovedByYear(ctx context.Context, year int) ([]VacationRequest, error)

	// ListApprovedConfirmed returns the requests that consume balance for
	// (employee, year): approved, employee-confirmed, starting in year.
	ListApprovedConfirmed(ctx context.Context, employeeID EmployeeID, year int) ([]VacationRequest, error)

	// ListApprovedConfirmedStarting returns approved and confirmed
	// requests across all employees whose start date equals on.
	ListApprovedConfirmedStarting(ctx context.Context, on Date) ([]VacationRequest, error)

	// AddNotification inserts a notification unconditionally.
	AddNotification(ctx context.Context, n Notification) error

	// AddNotificationIfAbsent inserts unless a notification with the same
	// (recipient, request, type) already exists. Returns whether a row
	// was created.
	AddNotificationIfAbsent(ctx context.Context, n Notification) (bool, error)

	// ListNotifications returns a recipient's notifications, newest first.
	ListNotifications(ctx context.Context, employeeID EmployeeID) ([]Notification, error)

	// CountUnread returns the number of unread notifications.
	CountUnread(ctx context.Context, employeeID EmployeeID) (int, error)

	// MarkNotificationRead sets the read flag and returns the updated
	// notification, or (nil, nil) if the id does not resolve.
	MarkNotificationRead(ctx context.Context, id NotificationID) (*Notification, error)
}

// Directory resolves employees. Manager references are guaranteed acyclic
// by the directory; the engine never validates the graph.
type Directory interface {
	// GetEmployee returns an employee by id, or (nil, nil).
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// GetEmployeeByUsername returns an employee by login name, or (nil, nil).
	GetEmployeeByUsername(ctx context.Context, username string) (*Employee, error)

	// ListEmployees returns all employees in insertion order.
	ListEmployees(ctx context.Context) ([]Employee, error)

	// ListByRole returns all employees holding the given role.
	ListByRole(ctx context.Context, role Role) ([]Employee, error)

	// SaveEmployee upserts a directory record. Seeding path only.
	SaveEmployee(ctx context.Context, e Employee) error
}
