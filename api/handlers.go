/*
handlers.go - HTTP API handlers for the vacation engine

PURPOSE:
  Exposes the vacation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST /api/auth/login                      Login, returns JWT
    GET  /api/auth/me                         Current principal
    POST /api/auth/profile                    Update own name

  Employee (self):
    GET  /api/vacation/balance?year=          Balance summary
    GET  /api/vacation/requests               Own requests
    POST /api/vacation/requests               Create request
    POST /api/vacation/requests/{id}/edit     Reschedule pending request
    POST /api/vacation/requests/{id}/confirm  Confirm request

  Manager:
    GET  /api/manager/requests                Team requests
    POST /api/manager/requests/{id}/approve   Approve
    POST /api/manager/requests/{id}/reject    Reject

  HR:
    GET  /api/hr/requests                     All requests
    GET  /api/hr/schedule?year=&manager_id=   Aggregated schedule
    GET  /api/hr/export                       CSV of approved requests

  Notifications:
    GET  /api/notifications                   Own notifications
    GET  /api/notifications/unread-count
    POST /api/notifications/{id}/read

  Admin:
    POST /api/admin/reminders/run             Manual reminder sweep

ERROR HANDLING:
  Domain errors map to HTTP status:
  - 400: validation errors, malformed dates
  - 403: role or ownership violations on manager routes
  - 404: missing resources; ownership violations on self-scoped routes
    (a foreign request is indistinguishable from a missing one)
  - 409: insufficient balance, invalid state transitions
  - 500: internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Login and token middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *vacation.Service
	Directory vacation.Directory

	JWTSecret []byte
	TokenTTL  time.Duration

	Log zerolog.Logger
}

// NewHandler creates a new handler around the service.
func NewHandler(service *vacation.Service, directory vacation.Directory, jwtSecret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{
		Service:   service,
		Directory: directory,
		JWTSecret: jwtSecret,
		TokenTTL:  tokenTTL,
		Log:       zerolog.Nop(),
	}
}

// =============================================================================
// EMPLOYEE (SELF) HANDLERS
// =============================================================================

// GetBalance returns the caller's balance summary for a year.
// GET /api/vacation/balance?year=
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)

	year, ok := parseYear(w, r)
	if !ok {
		return
	}

	avail, err := h.Service.GetAvailability(r.Context(), emp.ID, year)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		EmployeeID: string(avail.EmployeeID),
		Year:       avail.Year,
		Initial:    avail.Initial.String(),
		Planned:    avail.Planned.String(),
		Available:  avail.Available.String(),
	})
}

// ListOwnRequests returns the caller's requests, newest first.
// GET /api/vacation/requests
func (h *Handler) ListOwnRequests(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)

	reqs, err := h.Service.EmployeeRequests(r.Context(), emp.ID)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// CreateRequest submits a new vacation request for the caller.
// POST /api/vacation/requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)

	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	req, err := h.Service.CreateRequest(r.Context(), emp.ID, start, end)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(req))
}

// EditRequest reschedules the caller's own pending request.
// POST /api/vacation/requests/{id}/edit
func (h *Handler) EditRequest(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)
	id := vacation.RequestID(chi.URLParam(r, "id"))

	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	req, err := h.Service.EditRequest(r.Context(), id, emp.ID, start, end)
	if err != nil {
		h.writeDomainError(w, err, true)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// ConfirmRequest marks the caller's own request as confirmed.
// POST /api/vacation/requests/{id}/confirm
func (h *Handler) ConfirmRequest(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)
	id := vacation.RequestID(chi.URLParam(r, "id"))

	req, err := h.Service.ConfirmRequest(r.Context(), id, emp.ID)
	if err != nil {
		h.writeDomainError(w, err, true)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// MANAGER HANDLERS
// =============================================================================

// ListTeamRequests returns the requests of the caller's direct reports.
// GET /api/manager/requests
func (h *Handler) ListTeamRequests(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)

	reqs, err := h.Service.TeamRequests(r.Context(), emp.ID)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// ApproveRequest approves a pending request of a direct report.
// POST /api/manager/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)
	id := vacation.RequestID(chi.URLParam(r, "id"))

	req, err := h.Service.ApproveRequest(r.Context(), id, emp.ID)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// RejectRequest rejects a pending request of a direct report.
// POST /api/manager/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)
	id := vacation.RequestID(chi.URLParam(r, "id"))

	req, err := h.Service.RejectRequest(r.Context(), id, emp.ID)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// =============================================================================
// HR HANDLERS
// =============================================================================

// ListAllRequests returns every request in the system.
// GET /api/hr/requests
func (h *Handler) ListAllRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.AllRequests(r.Context())
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// GetSchedule returns the approved vacation schedule for a year.
// GET /api/hr/schedule?year=&manager_id=
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	year, ok := parseYear(w, r)
	if !ok {
		return
	}

	var managerFilter *vacation.EmployeeID
	if v := r.URL.Query().Get("manager_id"); v != "" {
		id := vacation.EmployeeID(v)
		managerFilter = &id
	}

	entries, err := h.Service.ListSchedule(r.Context(), year, managerFilter)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(entries))
}

// =============================================================================
// NOTIFICATION HANDLERS
// =============================================================================

// ListNotifications returns the caller's notifications, rendered for them.
// GET /api/notifications
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)

	views, err := h.Service.Notifications(r.Context(), emp.ID)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationDTOs(views))
}

// UnreadCount returns how many of the caller's notifications are unread.
// GET /api/notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)

	count, err := h.Service.UnreadCount(r.Context(), emp.ID)
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountDTO{Count: count})
}

// MarkNotificationRead marks one of the caller's notifications as read.
// POST /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	emp := currentEmployee(r)
	id := vacation.NotificationID(chi.URLParam(r, "id"))

	n, err := h.Service.MarkNotificationRead(r.Context(), id, emp.ID)
	if err != nil {
		h.writeDomainError(w, err, true)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":      string(n.ID),
		"is_read": n.IsRead,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunReminderSweep triggers the reminder sweep for today.
// POST /api/admin/reminders/run
func (h *Handler) RunReminderSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.RunReminderSweep(r.Context(), h.Service.Clock.Today())
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, SweepResultDTO{Created: result.Created, Skipped: result.Skipped})
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parseYear reads the year query parameter, defaulting to the current
// year. Writes a 400 and returns false on a malformed value.
func parseYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return time.Now().Year(), true
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 1 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

// parseDateRange decodes and validates a DateRangeRequest body. Writes a
// 400 and returns false on malformed input.
func parseDateRange(w http.ResponseWriter, r *http.Request) (vacation.Date, vacation.Date, bool) {
	var body DateRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return vacation.Date{}, vacation.Date{}, false
	}

	start, err := vacation.ParseDate(body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD", err)
		return vacation.Date{}, vacation.Date{}, false
	}
	end, err := vacation.ParseDate(body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD", err)
		return vacation.Date{}, vacation.Date{}, false
	}
	return start, end, true
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// writeDomainError maps a domain error onto an HTTP status. selfScoped
// marks routes where the caller addresses a resource by id that should
// look absent rather than forbidden when owned by someone else.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, selfScoped bool) {
	switch {
	case errors.Is(err, vacation.ErrValidation):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	case errors.Is(err, vacation.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "Insufficient vacation balance", err)
	case errors.Is(err, vacation.ErrInvalidState):
		writeError(w, http.StatusConflict, "Request is not in a state that allows this operation", err)
	case errors.Is(err, vacation.ErrForbidden):
		if selfScoped {
			writeError(w, http.StatusNotFound, "Not found", nil)
			return
		}
		writeError(w, http.StatusForbidden, "Forbidden", err)
	case errors.Is(err, vacation.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", nil)
	default:
		h.Log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
