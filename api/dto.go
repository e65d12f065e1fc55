/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes of the HTTP surface. Dates cross the boundary as
  YYYY-MM-DD strings; malformed dates are rejected here with 400 before
  reaching the core.

SEE ALSO:
  - handlers.go: Handlers consuming/producing these
*/
package api

import (
	"time"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// REQUEST BODIES
// =============================================================================

// LoginRequest carries credentials for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DateRangeRequest is the body of create and edit.
type DateRangeRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ProfileUpdateRequest carries the caller's new display name.
type ProfileUpdateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// =============================================================================
// RESPONSE BODIES
// =============================================================================

// LoginResponse returns the signed token and the authenticated principal.
type LoginResponse struct {
	Token    string      `json:"token"`
	Employee EmployeeDTO `json:"employee"`
}

type EmployeeDTO struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Role      string  `json:"role"`
	ManagerID *string `json:"manager_id,omitempty"`
}

type BalanceDTO struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Initial    string `json:"initial_days"`
	Planned    string `json:"planned_days"`
	Available  string `json:"available_days"`
}

type RequestDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
	Status       string `json:"status"`
	Confirmed    bool   `json:"confirmed_by_employee"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type SchedulePeriodDTO struct {
	RequestID    string `json:"request_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
	Confirmed    bool   `json:"confirmed_by_employee"`
}

type ScheduleEntryDTO struct {
	Employee EmployeeDTO         `json:"employee"`
	Periods  []SchedulePeriodDTO `json:"periods"`
}

type NotificationDTO struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	RequestID *string `json:"request_id,omitempty"`
	Message   string  `json:"message"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

type UnreadCountDTO struct {
	Count int `json:"count"`
}

type SweepResultDTO struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployeeDTO(e *vacation.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:        string(e.ID),
		Username:  e.Username,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Role:      string(e.Role),
	}
	if e.ManagerID != nil {
		id := string(*e.ManagerID)
		dto.ManagerID = &id
	}
	return dto
}

func toRequestDTO(req *vacation.VacationRequest) RequestDTO {
	return RequestDTO{
		ID:           string(req.ID),
		EmployeeID:   string(req.EmployeeID),
		StartDate:    req.StartDate.String(),
		EndDate:      req.EndDate.String(),
		DurationDays: req.DurationDays(),
		Status:       string(req.Status),
		Confirmed:    req.ConfirmedByEmployee,
		CreatedAt:    req.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    req.UpdatedAt.Format(time.RFC3339),
	}
}

func toRequestDTOs(reqs []vacation.VacationRequest) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i := range reqs {
		dtos[i] = toRequestDTO(&reqs[i])
	}
	return dtos
}

func toScheduleDTO(entries []vacation.ScheduleEntry) []ScheduleEntryDTO {
	dtos := make([]ScheduleEntryDTO, len(entries))
	for i, e := range entries {
		periods := make([]SchedulePeriodDTO, len(e.Periods))
		for j, p := range e.Periods {
			periods[j] = SchedulePeriodDTO{
				RequestID:    string(p.RequestID),
				StartDate:    p.StartDate.String(),
				EndDate:      p.EndDate.String(),
				DurationDays: p.DurationDays,
				Confirmed:    p.Confirmed,
			}
		}
		emp := e.Employee
		dtos[i] = ScheduleEntryDTO{Employee: toEmployeeDTO(&emp), Periods: periods}
	}
	return dtos
}

func toNotificationDTOs(views []vacation.NotificationView) []NotificationDTO {
	dtos := make([]NotificationDTO, len(views))
	for i, v := range views {
		dto := NotificationDTO{
			ID:        string(v.ID),
			Type:      string(v.Type),
			Message:   v.Message,
			IsRead:    v.IsRead,
			CreatedAt: v.CreatedAt.Format(time.RFC3339),
		}
		if v.RequestID != nil {
			id := string(*v.RequestID)
			dto.RequestID = &id
		}
		dtos[i] = dto
	}
	return dtos
}
