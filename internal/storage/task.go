package storage

import "time"

type Task struct {
	ID                  int64      `json:"id"`
	TenantID            int64      `json:"tenant_id"`
	JobsheetID          int64      `json:"jobsheet_id"`
	Name                string     `json:"name"`
	Status              TaskStatus `json:"status"`
	ProgressPercent     int        `json:"progress_percent"`
	PlannedHours        *float64   `json:"planned_hours"`
	ActualHours         *float64   `json:"actual_hours"`
	PlannedStartDate    *time.Time `json:"planned_start_date"`
	PlannedEndDate      *time.Time `json:"planned_end_date"`
	ClockedInAt         *time.Time `json:"clocked_in_at"`
	ClockedOutAt        *time.Time `json:"clocked_out_at"`
	BreakdownAt         *time.Time `json:"breakdown_at"`
	BreakdownNote       *string    `json:"breakdown_note"`
	BreakdownResolvedAt *time.Time `json:"breakdown_resolved_at"`
	MachineID           *int64     `json:"machine_id"`
	AssignedTo          *int64     `json:"assigned_to"`
}
