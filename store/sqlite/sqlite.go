/*
Package sqlite provides the SQLite-backed implementation of the storage
and directory interfaces.

PURPOSE:
  Persists employees, balances, requests, and notifications with
  database/sql + mattn/go-sqlite3. The same patterns apply to PostgreSQL;
  only minor dialect differences.

KEY TABLES:
  employees:      Directory records (role, manager reference, credential)
  balances:       One row per (employee, year), unique
  requests:       Vacation requests with status and confirmation flag
  notifications:  Derived notification rows; never deleted

IDEMPOTENCY:
  AddNotificationIfAbsent is implemented as detect-then-skip inside the
  store's write lock, giving the reminder sweep its one-row-per-
  (recipient, request, type) guarantee.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/vacation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - vacation/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/vacation-engine/vacation"
)

// Store implements vacation.Store and vacation.Directory using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE COLLATE NOCASE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		manager_id TEXT,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_role ON employees(role);
	CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id);

	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		initial_days TEXT NOT NULL,
		PRIMARY KEY (employee_id, year)
	);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		confirmed_by_employee INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		seq INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id, seq DESC);
	-- Hot path: planned-days sums and schedule listings filter on these.
	CREATE INDEX IF NOT EXISTS idx_requests_status_start
		ON requests(status, start_date);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		request_id TEXT,
		type TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		seq INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_employee
		ON notifications(employee_id, seq DESC);
	-- Reminder-sweep dedup lookups.
	CREATE INDEX IF NOT EXISTS idx_notifications_dedupe
		ON notifications(employee_id, request_id, type);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

const timeLayout = time.RFC3339Nano

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) GetOrCreateBalance(ctx context.Context, employeeID vacation.EmployeeID, year int) (*vacation.BalanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO balances (employee_id, year, initial_days) VALUES (?, ?, '0')`,
		string(employeeID), year)
	if err != nil {
		return nil, err
	}

	var initial string
	err = s.db.QueryRowContext(ctx,
		`SELECT initial_days FROM balances WHERE employee_id = ? AND year = ?`,
		string(employeeID), year).Scan(&initial)
	if err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(initial)
	if err != nil {
		return nil, fmt.Errorf("corrupt initial_days for %s/%d: %w", employeeID, year, err)
	}

	return &vacation.BalanceRecord{
		EmployeeID:  employeeID,
		Year:        year,
		InitialDays: vacation.Days{Value: value},
	}, nil
}

func (s *Store) SaveBalance(ctx context.Context, record vacation.BalanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances (employee_id, year, initial_days) VALUES (?, ?, ?)
		ON CONFLICT(employee_id, year) DO UPDATE SET initial_days = excluded.initial_days`,
		string(record.EmployeeID), record.Year, record.InitialDays.Value.String())
	return err
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) SaveRequest(ctx context.Context, req *vacation.VacationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (id, employee_id, start_date, end_date, status, confirmed_by_employee, created_at, updated_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM requests))
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			confirmed_by_employee = excluded.confirmed_by_employee,
			updated_at = excluded.updated_at`,
		string(req.ID), string(req.EmployeeID),
		req.StartDate.String(), req.EndDate.String(),
		string(req.Status), boolToInt(req.ConfirmedByEmployee),
		req.CreatedAt.UTC().Format(timeLayout), req.UpdatedAt.UTC().Format(timeLayout))
	return err
}

func (s *Store) GetRequest(ctx context.Context, id vacation.RequestID) (*vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, start_date, end_date, status, confirmed_by_employee, created_at, updated_at
		FROM requests WHERE id = ?`, string(id))

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.VacationRequest, error) {
	return s.listRequests(ctx, `WHERE employee_id = ? ORDER BY seq DESC`, string(employeeID))
}

func (s *Store) ListRequests(ctx context.Context) ([]vacation.VacationRequest, error) {
	return s.listRequests(ctx, `ORDER BY seq DESC`)
}

func (s *Store) ListApprovedByYear(ctx context.Context, year int) ([]vacation.VacationRequest, error) {
	return s.listRequests(ctx,
		`WHERE status = 'approved' AND start_date >= ? AND start_date <= ? ORDER BY seq ASC`,
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
}

func (s *Store) ListApprovedConfirmed(ctx context.Context, employeeID vacation.EmployeeID, year int) ([]vacation.VacationRequest, error) {
	return s.listRequests(ctx, `
		WHERE employee_id = ? AND status = 'approved' AND confirmed_by_employee = 1
		  AND start_date >= ? AND start_date <= ?
		ORDER BY seq ASC`,
		string(employeeID), fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
}

func (s *Store) ListApprovedConfirmedStarting(ctx context.Context, on vacation.Date) ([]vacation.VacationRequest, error) {
	return s.listRequests(ctx, `
		WHERE status = 'approved' AND confirmed_by_employee = 1 AND start_date = ?
		ORDER BY seq ASC`, on.String())
}

func (s *Store) listRequests(ctx context.Context, clause string, args ...any) ([]vacation.VacationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, start_date, end_date, status, confirmed_by_employee, created_at, updated_at
		FROM requests `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []vacation.VacationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*vacation.VacationRequest, error) {
	var (
		id, employeeID, start, end, status string
		confirmed                          int
		createdAt, updatedAt               string
	)
	if err := row.Scan(&id, &employeeID, &start, &end, &status, &confirmed, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	startDate, err := vacation.ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("corrupt start_date for request %s: %w", id, err)
	}
	endDate, err := vacation.ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("corrupt end_date for request %s: %w", id, err)
	}

	return &vacation.VacationRequest{
		ID:                  vacation.RequestID(id),
		EmployeeID:          vacation.EmployeeID(employeeID),
		StartDate:           startDate,
		EndDate:             endDate,
		Status:              vacation.RequestStatus(status),
		ConfirmedByEmployee: confirmed != 0,
		CreatedAt:           parseTime(createdAt),
		UpdatedAt:           parseTime(updatedAt),
	}, nil
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func (s *Store) AddNotification(ctx context.Context, n vacation.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertNotification(ctx, n)
}

func (s *Store) AddNotificationIfAbsent(ctx context.Context, n vacation.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE employee_id = ? AND request_id IS ? AND type = ?`,
		string(n.EmployeeID), requestIDValue(n.RequestID), string(n.Type)).Scan(&count)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := s.insertNotification(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) insertNotification(ctx context.Context, n vacation.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, employee_id, request_id, type, is_read, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM notifications))`,
		string(n.ID), string(n.EmployeeID), requestIDValue(n.RequestID),
		string(n.Type), boolToInt(n.IsRead), n.CreatedAt.UTC().Format(timeLayout))
	return err
}

func (s *Store) ListNotifications(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, request_id, type, is_read, created_at
		FROM notifications WHERE employee_id = ? ORDER BY seq DESC`, string(employeeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []vacation.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, employeeID vacation.EmployeeID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE employee_id = ? AND is_read = 0`,
		string(employeeID)).Scan(&count)
	return count, err
}

func (s *Store) MarkNotificationRead(ctx context.Context, id vacation.NotificationID) (*vacation.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, request_id, type, is_read, created_at
		FROM notifications WHERE id = ?`, string(id))
	return scanNotification(row)
}

func scanNotification(row rowScanner) (*vacation.Notification, error) {
	var (
		id, employeeID, typ, createdAt string
		requestID                      sql.NullString
		isRead                         int
	)
	if err := row.Scan(&id, &employeeID, &requestID, &typ, &isRead, &createdAt); err != nil {
		return nil, err
	}

	n := &vacation.Notification{
		ID:         vacation.NotificationID(id),
		EmployeeID: vacation.EmployeeID(employeeID),
		Type:       vacation.NotificationType(typ),
		IsRead:     isRead != 0,
		CreatedAt:  parseTime(createdAt),
	}
	if requestID.Valid {
		rid := vacation.RequestID(requestID.String)
		n.RequestID = &rid
	}
	return n, nil
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e vacation.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var managerID any
	if e.ManagerID != nil {
		managerID = string(*e.ManagerID)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, username, first_name, last_name, role, manager_id, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			role = excluded.role,
			manager_id = excluded.manager_id,
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at`,
		string(e.ID), e.Username, e.FirstName, e.LastName, string(e.Role),
		managerID, e.PasswordHash,
		e.CreatedAt.UTC().Format(timeLayout), e.UpdatedAt.UTC().Format(timeLayout))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id vacation.EmployeeID) (*vacation.Employee, error) {
	return s.getEmployee(ctx, `WHERE id = ?`, string(id))
}

func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (*vacation.Employee, error) {
	return s.getEmployee(ctx, `WHERE username = ? COLLATE NOCASE`, username)
}

func (s *Store) getEmployee(ctx context.Context, clause string, args ...any) (*vacation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name, role, manager_id, password_hash, created_at, updated_at
		FROM employees `+clause, args...)

	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]vacation.Employee, error) {
	return s.listEmployees(ctx, `ORDER BY created_at ASC, id ASC`)
}

func (s *Store) ListByRole(ctx context.Context, role vacation.Role) ([]vacation.Employee, error) {
	return s.listEmployees(ctx, `WHERE role = ? ORDER BY created_at ASC, id ASC`, string(role))
}

func (s *Store) listEmployees(ctx context.Context, clause string, args ...any) ([]vacation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, first_name, last_name, role, manager_id, password_hash, created_at, updated_at
		FROM employees `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []vacation.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func scanEmployee(row rowScanner) (*vacation.Employee, error) {
	var (
		id, username, firstName, lastName, role string
		managerID                               sql.NullString
		passwordHash, createdAt, updatedAt      string
	)
	if err := row.Scan(&id, &username, &firstName, &lastName, &role, &managerID, &passwordHash, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	e := &vacation.Employee{
		ID:           vacation.EmployeeID(id),
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         vacation.Role(role),
		PasswordHash: passwordHash,
		CreatedAt:    parseTime(createdAt),
		UpdatedAt:    parseTime(updatedAt),
	}
	if managerID.Valid {
		mid := vacation.EmployeeID(managerID.String)
		e.ManagerID = &mid
	}
	return e, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requestIDValue(id *vacation.RequestID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
