package storage

import "time"

type Machine struct {
	ID       int64         `json:"id"`
	TenantID int64         `json:"tenant_id"`
	Name     string        `json:"name"`
	Status   MachineStatus `json:"status"`
	IsActive bool          `json:"is_active"`
}

type Breakdown struct {
	ID             int64      `json:"id"`
	TenantID       int64      `json:"tenant_id"`
	MachineID      int64      `json:"machine_id"`
	AffectedTaskID *int64     `json:"affected_task_id"`
	Type           string     `json:"type"`
	Description    string     `json:"description"`
	ReportedBy     int64      `json:"reported_by"`
	ReportedAt     time.Time  `json:"reported_at"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	ResolvedBy     *int64     `json:"resolved_by"`
	Resolution     *string    `json:"resolution"`
}
