/*
export.go - CSV export of approved requests

PURPOSE:
  HR downloads every approved request as CSV, one row per request,
  newest first. The export is not scoped to a year; it is the flat
  company-wide record of everything approved so far.

SEE ALSO:
  - handlers.go: GetSchedule (the year-scoped JSON view)
*/
package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/warp/vacation-engine/vacation"
)

// ExportApprovedRequests streams all approved requests as CSV.
// GET /api/hr/export
func (h *Handler) ExportApprovedRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.AllRequests(r.Context())
	if err != nil {
		h.writeDomainError(w, err, false)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="vacation-requests.csv"`)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	cw.Write([]string{"ID", "Employee", "Start Date", "End Date", "Status", "Created At", "Confirmed"})

	names := map[vacation.EmployeeID]string{}
	for i := range reqs {
		req := &reqs[i]
		if req.Status != vacation.StatusApproved {
			continue
		}

		name, ok := names[req.EmployeeID]
		if !ok {
			emp, err := h.Directory.GetEmployee(r.Context(), req.EmployeeID)
			if err != nil {
				h.writeDomainError(w, err, false)
				return
			}
			if emp != nil {
				name = emp.DisplayName()
			}
			names[req.EmployeeID] = name
		}

		cw.Write([]string{
			string(req.ID),
			name,
			req.StartDate.String(),
			req.EndDate.String(),
			string(req.Status),
			req.CreatedAt.Format(time.RFC3339),
			strconv.FormatBool(req.ConfirmedByEmployee),
		})
	}
}
