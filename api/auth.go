/*
auth.go - Login, JWT issuing, and request authentication

PURPOSE:
  POST /api/auth/login verifies credentials with bcrypt and issues an
  HS256 JWT (subject = employee id, role claim, expiry). The
  Authenticator middleware parses the bearer token, loads the employee,
  and stores it in the request context. RequireRole gates role-scoped
  route groups.

SECURITY NOTE:
  Login failures return a single generic 401 so usernames cannot be
  enumerated.

SEE ALSO:
  - server.go: where the middleware is mounted
  - factory/seed.go: demo credentials
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/vacation-engine/vacation"
)

type contextKey string

const employeeContextKey contextKey = "employee"

// currentEmployee returns the authenticated employee from the request
// context. Handlers behind Authenticator can rely on it being present.
func currentEmployee(r *http.Request) *vacation.Employee {
	emp, _ := r.Context().Value(employeeContextKey).(*vacation.Employee)
	return emp
}

// =============================================================================
// LOGIN
// =============================================================================

// Login verifies credentials and issues a signed token.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required", nil)
		return
	}

	emp, err := h.Directory.GetEmployeeByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	if emp == nil || bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  string(emp.ID),
		"role": string(emp.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(h.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.JWTSecret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to sign token", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Employee: toEmployeeDTO(emp)})
}

// Me returns the authenticated principal.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toEmployeeDTO(currentEmployee(r)))
}

// UpdateProfile changes the caller's first and last name. Role, manager
// link, and credential are not editable here.
// POST /api/auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)

	var body ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	firstName := strings.TrimSpace(body.FirstName)
	lastName := strings.TrimSpace(body.LastName)
	if firstName == "" || lastName == "" {
		writeError(w, http.StatusBadRequest, "First name and last name are required", nil)
		return
	}

	updated := *emp
	updated.FirstName = firstName
	updated.LastName = lastName
	updated.UpdatedAt = h.Service.Clock.Now()

	if err := h.Directory.SaveEmployee(r.Context(), updated); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(&updated))
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// Authenticator validates the bearer token and loads the employee into
// the request context. Requests without a valid token get 401.
func (h *Handler) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return h.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			writeError(w, http.StatusUnauthorized, "Invalid token claims", nil)
			return
		}

		emp, err := h.Directory.GetEmployee(r.Context(), vacation.EmployeeID(sub))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load user", err)
			return
		}
		if emp == nil {
			// Token subject no longer exists (deleted employee).
			writeError(w, http.StatusUnauthorized, "Unknown user", nil)
			return
		}

		ctx := context.WithValue(r.Context(), employeeContextKey, emp)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group to one role.
func RequireRole(role vacation.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			emp := currentEmployee(r)
			if emp == nil || emp.Role != role {
				writeError(w, http.StatusForbidden, "Insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
