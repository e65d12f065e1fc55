/*
notify.go - Notification derivation, rendering, and the reminder sweep

PURPOSE:
  Notifications are records derived from lifecycle transitions and from a
  daily reminder sweep. Message text is rendered per viewer: the owner of
  the referenced request reads "your vacation", everyone else reads a
  third-person phrasing naming the employee.

FAN-OUT POLICY (reminder sweep):
  For each approved + employee-confirmed request:
    start in exactly 14 days -> employee, manager (if any), every HR
    start today              -> employee, manager (if any); HR excluded

IDEMPOTENCY:
  The sweep creates at most one notification per (recipient, request,
  type) tuple, detect-then-skip, so running it twice a day is harmless
  under at-least-once triggering.
*/
package vacation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReminderLeadDays is how far ahead of the start date the upcoming-vacation
// reminder fires.
const ReminderLeadDays = 14

// =============================================================================
// RENDERING
// =============================================================================

// Render produces the display message for a notification. Pure function of
// the notification type, the referenced request, its owner, and the viewer.
// Unknown types or a missing request fall back to a generic placeholder and
// never fail.
func Render(n Notification, req *VacationRequest, owner *Employee, viewer EmployeeID) string {
	if req == nil || owner == nil {
		return "Notification"
	}

	self := viewer == req.EmployeeID
	period := fmt.Sprintf("%s to %s", req.StartDate, req.EndDate)
	name := owner.DisplayName()

	switch n.Type {
	case NotificationCreated:
		if self {
			return fmt.Sprintf("Your vacation request for %s was created.", period)
		}
		return fmt.Sprintf("%s created a vacation request for %s.", name, period)
	case NotificationApproved:
		if self {
			return fmt.Sprintf("Your vacation request for %s was approved.", period)
		}
		return fmt.Sprintf("Vacation request by %s for %s was approved.", name, period)
	case NotificationRejected:
		if self {
			return fmt.Sprintf("Your vacation request for %s was rejected.", period)
		}
		return fmt.Sprintf("Vacation request by %s for %s was rejected.", name, period)
	case NotificationRescheduled:
		if self {
			return fmt.Sprintf("Your vacation request was rescheduled to %s.", period)
		}
		return fmt.Sprintf("%s rescheduled their vacation request to %s.", name, period)
	case NotificationReminderUpcoming:
		if self {
			return fmt.Sprintf("Your vacation starts in %d days, on %s.", ReminderLeadDays, req.StartDate)
		}
		return fmt.Sprintf("%s's vacation starts in %d days, on %s.", name, ReminderLeadDays, req.StartDate)
	case NotificationStartToday:
		if self {
			return fmt.Sprintf("Your vacation starts today (%s).", period)
		}
		return fmt.Sprintf("%s's vacation starts today (%s).", name, period)
	}
	return "Notification"
}

// =============================================================================
// LIFECYCLE SIDE EFFECTS
// =============================================================================

// notify inserts a notification for one recipient about one request.
func (s *Service) notify(ctx context.Context, recipient EmployeeID, typ NotificationType, requestID RequestID) error {
	n := Notification{
		ID:         NotificationID(uuid.NewString()),
		EmployeeID: recipient,
		RequestID:  &requestID,
		Type:       typ,
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Store.AddNotification(ctx, n); err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	return nil
}

// =============================================================================
// REMINDER SWEEP
// =============================================================================

// SweepResult reports how many notifications a sweep created and how many
// it skipped as duplicates.
type SweepResult struct {
	Created int
	Skipped int
}

// RunReminderSweep generates reminder notifications for approved and
// confirmed requests starting in ReminderLeadDays days or starting today.
// One pass per invocation; safe to re-run for the same day.
func (s *Service) RunReminderSweep(ctx context.Context, today Date) (SweepResult, error) {
	var result SweepResult

	hr, err := s.Directory.ListByRole(ctx, RoleHR)
	if err != nil {
		return result, fmt.Errorf("list hr employees: %w", err)
	}

	upcoming, err := s.Store.ListApprovedConfirmedStarting(ctx, today.AddDays(ReminderLeadDays))
	if err != nil {
		return result, fmt.Errorf("list upcoming requests: %w", err)
	}
	for i := range upcoming {
		if err := s.fanOut(ctx, &upcoming[i], NotificationReminderUpcoming, hr, &result); err != nil {
			return result, err
		}
	}

	starting, err := s.Store.ListApprovedConfirmedStarting(ctx, today)
	if err != nil {
		return result, fmt.Errorf("list starting requests: %w", err)
	}
	for i := range starting {
		// HR already got the 14-day reminder; day-of goes to the
		// employee and manager only.
		if err := s.fanOut(ctx, &starting[i], NotificationStartToday, nil, &result); err != nil {
			return result, err
		}
	}

	s.Log.Info().
		Str("today", today.String()).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("reminder sweep completed")

	return result, nil
}

func (s *Service) fanOut(ctx context.Context, req *VacationRequest, typ NotificationType, hr []Employee, result *SweepResult) error {
	emp, err := s.Directory.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return fmt.Errorf("resolve employee: %w", err)
	}
	if emp == nil {
		return nil
	}

	recipients := []EmployeeID{emp.ID}
	if emp.ManagerID != nil {
		recipients = append(recipients, *emp.ManagerID)
	}
	for i := range hr {
		recipients = append(recipients, hr[i].ID)
	}

	requestID := req.ID
	for _, recipient := range recipients {
		created, err := s.Store.AddNotificationIfAbsent(ctx, Notification{
			ID:         NotificationID(uuid.NewString()),
			EmployeeID: recipient,
			RequestID:  &requestID,
			Type:       typ,
			CreatedAt:  s.Clock.Now(),
		})
		if err != nil {
			return fmt.Errorf("add reminder notification: %w", err)
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	return nil
}

// =============================================================================
// VIEWER QUERIES
// =============================================================================

// NotificationView is a notification rendered for one viewer.
type NotificationView struct {
	ID        NotificationID
	Type      NotificationType
	RequestID *RequestID
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// Notifications returns the viewer's notifications, newest first, with
// messages rendered for that viewer.
func (s *Service) Notifications(ctx context.Context, viewer EmployeeID) ([]NotificationView, error) {
	list, err := s.Store.ListNotifications(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	requests := make(map[RequestID]*VacationRequest)
	owners := make(map[EmployeeID]*Employee)

	views := make([]NotificationView, 0, len(list))
	for _, n := range list {
		var req *VacationRequest
		var owner *Employee
		if n.RequestID != nil {
			var ok bool
			if req, ok = requests[*n.RequestID]; !ok {
				if req, err = s.Store.GetRequest(ctx, *n.RequestID); err != nil {
					return nil, fmt.Errorf("load request: %w", err)
				}
				requests[*n.RequestID] = req
			}
			if req != nil {
				var ok bool
				if owner, ok = owners[req.EmployeeID]; !ok {
					if owner, err = s.Directory.GetEmployee(ctx, req.EmployeeID); err != nil {
						return nil, fmt.Errorf("resolve employee: %w", err)
					}
					owners[req.EmployeeID] = owner
				}
			}
		}

		views = append(views, NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			RequestID: n.RequestID,
			Message:   Render(n, req, owner, viewer),
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return views, nil
}

// UnreadCount returns how many of the viewer's notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, viewer EmployeeID) (int, error) {
	return s.Store.CountUnread(ctx, viewer)
}

// MarkNotificationRead sets the read flag on the viewer's own
// notification. A notification that does not exist and one belonging to
// someone else are indistinguishable: both return ErrNotFound.
func (s *Service) MarkNotificationRead(ctx context.Context, id NotificationID, viewer EmployeeID) (*Notification, error) {
	list, err := s.Store.ListNotifications(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	for _, n := range list {
		if n.ID == id {
			updated, err := s.Store.MarkNotificationRead(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("mark read: %w", err)
			}
			return updated, nil
		}
	}
	return nil, fmt.Errorf("notification %s: %w", id, ErrNotFound)
}
