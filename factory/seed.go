/*
Package factory seeds demo data.

PURPOSE:
  Creates the demo directory used for local development and manual
  testing: one employee, their manager, and one HR user, each with a
  current-year balance and a known password.

DEMO ACCOUNTS (password "password123"):
  employee  reports to manager, 20 days
  manager   25 days
  hr        30 days

Seeding is idempotent on username: existing users are left untouched.

SEE ALSO:
  - cmd/server/main.go: the -seed flag
*/
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/vacation-engine/vacation"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type seedUser struct {
	Username  string
	FirstName string
	LastName  string
	Role      vacation.Role
	Days      int
}

// SeedDemo populates the directory and balances with the demo accounts.
func SeedDemo(ctx context.Context, store vacation.Store, directory vacation.Directory) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	year := time.Now().Year()

	manager, err := ensureUser(ctx, store, directory, seedUser{
		Username: "manager", FirstName: "Maria", LastName: "Vega",
		Role: vacation.RoleManager, Days: 25,
	}, nil, string(hash), year)
	if err != nil {
		return err
	}

	if _, err := ensureUser(ctx, store, directory, seedUser{
		Username: "employee", FirstName: "Evan", LastName: "Brooks",
		Role: vacation.RoleEmployee, Days: 20,
	}, &manager.ID, string(hash), year); err != nil {
		return err
	}

	if _, err := ensureUser(ctx, store, directory, seedUser{
		Username: "hr", FirstName: "Hana", LastName: "Reyes",
		Role: vacation.RoleHR, Days: 30,
	}, nil, string(hash), year); err != nil {
		return err
	}

	return nil
}

func ensureUser(ctx context.Context, store vacation.Store, directory vacation.Directory, u seedUser, managerID *vacation.EmployeeID, hash string, year int) (*vacation.Employee, error) {
	existing, err := directory.GetEmployeeByUsername(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", u.Username, err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	emp := vacation.Employee{
		ID:           vacation.EmployeeID(uuid.NewString()),
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role,
		ManagerID:    managerID,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := directory.SaveEmployee(ctx, emp); err != nil {
		return nil, fmt.Errorf("save %s: %w", u.Username, err)
	}

	if err := store.SaveBalance(ctx, vacation.BalanceRecord{
		EmployeeID:  emp.ID,
		Year:        year,
		InitialDays: vacation.DaysOf(u.Days),
	}); err != nil {
		return nil, fmt.Errorf("save balance for %s: %w", u.Username, err)
	}

	return &emp, nil
}
