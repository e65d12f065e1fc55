/*
Package vacation implements the vacation balance and request consistency
engine.

PURPOSE:
  This package contains the rules that govern how vacation requests are
  validated against a per-year day allotment, how a request moves through
  its lifecycle (pending -> approved/rejected), and how notifications are
  derived from lifecycle transitions and the reminder sweep.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar date (day granularity, UTC) - the only time unit
    requests are expressed in
  - Days: A day amount backed by decimal.Decimal
  - Employee: Directory entry with role and optional manager reference
  - BalanceRecord: Per-(employee, year) initial allotment
  - VacationRequest: The request entity with status and confirmation flag
  - Notification: Derived side effect of lifecycle transitions

DESIGN PRINCIPLES:
  1. A request is charged entirely to its start year, even across a year
     boundary
  2. Only approved AND employee-confirmed requests consume balance
  3. Available days are floored at zero for display and validation
  4. Notification types form a closed set; rendering never fails

SEE ALSO:
  - errors.go: Error taxonomy
  - lifecycle.go: Request state machine
  - availability.go: Balance calculation
  - notify.go: Notification rendering and reminder fan-out
*/
package vacation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar date at day granularity
// =============================================================================

// Date is a calendar date. The wall-clock portion is always midnight UTC.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool { return d.normalize().Equal(other.normalize()) }

func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) Year() int          { return d.Time.Year() }
func (d Date) IsZero() bool       { return d.Time.IsZero() }

func (d Date) String() string { return d.normalize().Format(dateLayout) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// SpanDays returns the inclusive length of [start, end] in days.
// A single-day range (start == end) yields 1.
func SpanDays(start, end Date) int {
	return DaysBetween(start, end) + 1
}

// =============================================================================
// DAYS - Day amount
// =============================================================================

// Days is a quantity of vacation days. Decimal-backed so that allotments
// seeded by an external process are carried without rounding.
type Days struct {
	Value decimal.Decimal
}

func DaysOf(n int) Days { return Days{Value: decimal.NewFromInt(int64(n))} }

// ZeroDays is the additive identity.
var ZeroDays = Days{Value: decimal.Zero}

func (d Days) Add(other Days) Days { return Days{Value: d.Value.Add(other.Value)} }
func (d Days) Sub(other Days) Days { return Days{Value: d.Value.Sub(other.Value)} }
func (d Days) GreaterThan(other Days) bool { return d.Value.GreaterThan(other.Value) }
func (d Days) LessThan(other Days) bool { return d.Value.LessThan(other.Value) }
func (d Days) Equal(other Days) bool { return d.Value.Equal(other.Value) }
func (d Days) IsNegative() bool { return d.Value.IsNegative() }
func (d Days) IsZero() bool { return d.Value.IsZero() }
func (d Days) String() string { return d.Value.String() }

// =============================================================================
// IDENTIFIERS AND ROLES
// =============================================================================

type EmployeeID string
type RequestID string
type NotificationID string

// Role is the closed set of directory roles. Immutable post-assignment.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleHR       Role = "hr"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHR:
		return true
	}
	return false
}

// =============================================================================
// EMPLOYEE - Directory entry
// =============================================================================

// Employee is a directory record. ManagerID is an id reference, not an
// owning pointer; the directory guarantees the relation is acyclic and at
// most one level deep.
type Employee struct {
	ID        EmployeeID
	Username  string
	FirstName string
	LastName  string
	Role      Role
	ManagerID *EmployeeID

	// Bearer of the login credential; empty for accounts that cannot log in.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns "First Last", falling back to the username.
func (e *Employee) DisplayName() string {
	if e.FirstName != "" || e.LastName != "" {
		if e.FirstName == "" {
			return e.LastName
		}
		if e.LastName == "" {
			return e.FirstName
		}
		return e.FirstName + " " + e.LastName
	}
	return e.Username
}

// =============================================================================
// BALANCE RECORD - Per-(employee, year) allotment
// =============================================================================

// BalanceRecord holds the initial day allotment for one employee and year.
// Unique per (employee, year); created lazily on first access or seeded by
// an administrative process. The engine only reads InitialDays.
type BalanceRecord struct {
	EmployeeID  EmployeeID
	Year        int
	InitialDays Days
}

// =============================================================================
// VACATION REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Terminal reports whether no further status transition is permitted.
func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// VacationRequest is a request for a contiguous date range. Invariants:
//   - StartDate <= EndDate
//   - DurationDays() >= 1
//   - charged entirely against StartDate.Year()
type VacationRequest struct {
	ID         RequestID
	EmployeeID EmployeeID
	StartDate  Date
	EndDate    Date
	Status     RequestStatus

	// Set once by the owning employee, never reset.
	ConfirmedByEmployee bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DurationDays is the inclusive day count of the request's range.
func (r *VacationRequest) DurationDays() int {
	return SpanDays(r.StartDate, r.EndDate)
}

// Year is the balance year this request is charged against.
func (r *VacationRequest) Year() int {
	return r.StartDate.Year()
}

func (r *VacationRequest) String() string {
	return fmt.Sprintf("%s %s - %s (%s)", r.EmployeeID, r.StartDate, r.EndDate, r.Status)
}

// =============================================================================
// NOTIFICATION
// =============================================================================

// NotificationType is the closed set of notification kinds, including the
// two reminder kinds produced by the scheduled sweep.
type NotificationType string

const (
	NotificationCreated          NotificationType = "request_created"
	NotificationApproved         NotificationType = "request_approved"
	NotificationRejected         NotificationType = "request_rejected"
	NotificationRescheduled      NotificationType = "request_rescheduled"
	NotificationReminderUpcoming NotificationType = "reminder_upcoming"
	NotificationStartToday       NotificationType = "start_today"
)

// Notification belongs to one recipient and optionally references a
// request. Immutable after creation except for the read flag.
type Notification struct {
	ID         NotificationID
	EmployeeID EmployeeID
	RequestID  *RequestID
	Type       NotificationType
	IsRead     bool
	CreatedAt  time.Time
}
