package storage

import "time"

type Order struct {
	ID               int64       `json:"id"`
	TenantID         int64       `json:"tenant_id"`
	Number           string      `json:"number"`
	Customer         string      `json:"customer"`
	Status           OrderStatus `json:"status"`
	ProgressPercent  int         `json:"progress_percent"`
	PlannedStartDate *time.Time  `json:"planned_start_date"`
	PlannedEndDate   *time.Time  `json:"planned_end_date"`
	ActualStartDate  *time.Time  `json:"actual_start_date"`
	ActualEndDate    *time.Time  `json:"actual_end_date"`
}

type ManufacturingOrder struct {
	ID               int64      `json:"id"`
	TenantID         int64      `json:"tenant_id"`
	OrderID          int64      `json:"order_id"`
	Number           string     `json:"number"`
	Status           WorkStatus `json:"status"`
	ProgressPercent  int        `json:"progress_percent"`
	PlannedStartDate *time.Time `json:"planned_start_date"`
	PlannedEndDate   *time.Time `json:"planned_end_date"`
}

type Jobsheet struct {
	ID               int64      `json:"id"`
	TenantID         int64      `json:"tenant_id"`
	MOID             int64      `json:"mo_id"`
	Number           string     `json:"number"`
	Status           WorkStatus `json:"status"`
	ProgressPercent  int        `json:"progress_percent"`
	PlannedStartDate *time.Time `json:"planned_start_date"`
	PlannedEndDate   *time.Time `json:"planned_end_date"`
}
