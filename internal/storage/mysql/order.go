package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"shopfloor/internal/storage"
)

const orderColumns = `id, tenant_id, number, customer, status, progress_percent,
	planned_start_date, planned_end_date, actual_start_date, actual_end_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*storage.Order, error) {
	var (
		o                        storage.Order
		plannedStart, plannedEnd sql.NullTime
		actualStart, actualEnd   sql.NullTime
		customer                 sql.NullString
	)

	err := row.Scan(&o.ID, &o.TenantID, &o.Number, &customer, &o.Status, &o.ProgressPercent,
		&plannedStart, &plannedEnd, &actualStart, &actualEnd)
	if err != nil {
		return nil, err
	}

	o.Customer = customer.String
	o.PlannedStartDate = timePtr(plannedStart)
	o.PlannedEndDate = timePtr(plannedEnd)
	o.ActualStartDate = timePtr(actualStart)
	o.ActualEndDate = timePtr(actualEnd)

	return &o, nil
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*storage.Order, error) {
	const op = "storage.mysql.GetOrder"

	stmt := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	return queryOne(ctx, s, op, "order", id, scanOrder, stmt, id)
}

// ListActiveOrders: заказы арендатора не в терминальных статусах.
func (s *Storage) ListActiveOrders(ctx context.Context, tenantID int64) ([]*storage.Order, error) {
	const op = "storage.mysql.ListActiveOrders"

	terminal := storage.TerminalOrderStatuses()

	stmt := `SELECT ` + orderColumns + ` FROM orders
		WHERE tenant_id = ? AND status NOT IN (` + placeholders(len(terminal)) + `)
		ORDER BY id`

	args := []any{tenantID}
	for _, st := range terminal {
		args = append(args, string(st))
	}

	return queryList(ctx, s, op, scanOrder, stmt, args...)
}

func (s *Storage) UpdateOrderProgress(ctx context.Context, id int64, percent int) error {
	const op = "storage.mysql.UpdateOrderProgress"

	res, err := s.db.ExecContext(ctx, `UPDATE orders SET progress_percent = ? WHERE id = ?`, percent, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления прогресса заказа id=%d: %w", op, id, err)
	}

	return expectOne(res, op, "order", id)
}

const moColumns = `id, tenant_id, order_id, number, status, progress_percent, planned_start_date, planned_end_date`

func scanMO(row rowScanner) (*storage.ManufacturingOrder, error) {
	var (
		mo                       storage.ManufacturingOrder
		plannedStart, plannedEnd sql.NullTime
	)

	err := row.Scan(&mo.ID, &mo.TenantID, &mo.OrderID, &mo.Number, &mo.Status, &mo.ProgressPercent,
		&plannedStart, &plannedEnd)
	if err != nil {
		return nil, err
	}

	mo.PlannedStartDate = timePtr(plannedStart)
	mo.PlannedEndDate = timePtr(plannedEnd)

	return &mo, nil
}

func (s *Storage) GetMO(ctx context.Context, id int64) (*storage.ManufacturingOrder, error) {
	const op = "storage.mysql.GetMO"

	stmt := `SELECT ` + moColumns + ` FROM manufacturing_orders WHERE id = ?`

	return queryOne(ctx, s, op, "mo", id, scanMO, stmt, id)
}

func (s *Storage) ListMOsByOrder(ctx context.Context, orderID int64) ([]*storage.ManufacturingOrder, error) {
	const op = "storage.mysql.ListMOsByOrder"

	stmt := `SELECT ` + moColumns + ` FROM manufacturing_orders WHERE order_id = ? ORDER BY id`

	return queryList(ctx, s, op, scanMO, stmt, orderID)
}

func (s *Storage) UpdateMOProgress(ctx context.Context, id int64, percent int) error {
	const op = "storage.mysql.UpdateMOProgress"

	res, err := s.db.ExecContext(ctx, `UPDATE manufacturing_orders SET progress_percent = ? WHERE id = ?`, percent, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления прогресса MO id=%d: %w", op, id, err)
	}

	return expectOne(res, op, "mo", id)
}

const jobsheetColumns = `id, tenant_id, mo_id, number, status, progress_percent, planned_start_date, planned_end_date`

func scanJobsheet(row rowScanner) (*storage.Jobsheet, error) {
	var (
		js                       storage.Jobsheet
		plannedStart, plannedEnd sql.NullTime
	)

	err := row.Scan(&js.ID, &js.TenantID, &js.MOID, &js.Number, &js.Status, &js.ProgressPercent,
		&plannedStart, &plannedEnd)
	if err != nil {
		return nil, err
	}

	js.PlannedStartDate = timePtr(plannedStart)
	js.PlannedEndDate = timePtr(plannedEnd)

	return &js, nil
}

func (s *Storage) GetJobsheet(ctx context.Context, id int64) (*storage.Jobsheet, error) {
	const op = "storage.mysql.GetJobsheet"

	stmt := `SELECT ` + jobsheetColumns + ` FROM jobsheets WHERE id = ?`

	return queryOne(ctx, s, op, "jobsheet", id, scanJobsheet, stmt, id)
}

func (s *Storage) ListJobsheetsByMO(ctx context.Context, moID int64) ([]*storage.Jobsheet, error) {
	const op = "storage.mysql.ListJobsheetsByMO"

	stmt := `SELECT ` + jobsheetColumns + ` FROM jobsheets WHERE mo_id = ? ORDER BY id`

	return queryList(ctx, s, op, scanJobsheet, stmt, moID)
}

func (s *Storage) UpdateJobsheetProgress(ctx context.Context, id int64, percent int) error {
	const op = "storage.mysql.UpdateJobsheetProgress"

	res, err := s.db.ExecContext(ctx, `UPDATE jobsheets SET progress_percent = ? WHERE id = ?`, percent, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления прогресса наряда id=%d: %w", op, id, err)
	}

	return expectOne(res, op, "jobsheet", id)
}
