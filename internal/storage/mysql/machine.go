package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shopfloor/internal/storage"
)

func scanMachine(row rowScanner) (*storage.Machine, error) {
	var m storage.Machine
	if err := row.Scan(&m.ID, &m.TenantID, &m.Name, &m.Status, &m.IsActive); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Storage) GetMachine(ctx context.Context, id int64) (*storage.Machine, error) {
	const op = "storage.mysql.GetMachine"

	stmt := `SELECT id, tenant_id, name, status, is_active FROM machines WHERE id = ?`

	return queryOne(ctx, s, op, "machine", id, scanMachine, stmt, id)
}

// ListMachines: активные станки арендатора.
func (s *Storage) ListMachines(ctx context.Context, tenantID int64) ([]*storage.Machine, error) {
	const op = "storage.mysql.ListMachines"

	stmt := `SELECT id, tenant_id, name, status, is_active FROM machines WHERE tenant_id = ? AND is_active = TRUE ORDER BY id`

	return queryList(ctx, s, op, scanMachine, stmt, tenantID)
}

func (s *Storage) UpdateMachineStatus(ctx context.Context, id int64, status storage.MachineStatus) error {
	const op = "storage.mysql.UpdateMachineStatus"

	res, err := s.db.ExecContext(ctx, `UPDATE machines SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления статуса станка id=%d: %w", op, id, err)
	}

	return expectOne(res, op, "machine", id)
}

// MarkMachineBusy переводит станок в BUSY, если он не в DOWN. false: станок сломан.
func (s *Storage) MarkMachineBusy(ctx context.Context, id int64) (bool, error) {
	const op = "storage.mysql.MarkMachineBusy"

	stmt := `UPDATE machines SET status = ? WHERE id = ? AND status <> ?`

	res, err := s.db.ExecContext(ctx, stmt, string(storage.MachineBusy), id, string(storage.MachineDown))
	if err != nil {
		return false, fmt.Errorf("%s: ошибка обновления статуса станка id=%d: %w", op, id, err)
	}

	return applied(res, op)
}

// ReleaseMachine возвращает BUSY станок в IDLE, если на нём не осталось открытых сессий.
func (s *Storage) ReleaseMachine(ctx context.Context, id int64) (bool, error) {
	const op = "storage.mysql.ReleaseMachine"

	stmt := `UPDATE machines SET status = ?
		WHERE id = ? AND status = ?
		  AND NOT EXISTS (
			SELECT 1 FROM tasks
			WHERE machine_id = ? AND status = ? AND clocked_in_at IS NOT NULL AND clocked_out_at IS NULL
		  )`

	res, err := s.db.ExecContext(ctx, stmt, string(storage.MachineIdle), id, string(storage.MachineBusy),
		id, string(storage.TaskRunning))
	if err != nil {
		return false, fmt.Errorf("%s: ошибка освобождения станка id=%d: %w", op, id, err)
	}

	return applied(res, op)
}

// RestoreMachineIdle ставит IDLE, только если у станка нет открытых поломок.
func (s *Storage) RestoreMachineIdle(ctx context.Context, id int64) (bool, error) {
	const op = "storage.mysql.RestoreMachineIdle"

	stmt := `UPDATE machines SET status = ?
		WHERE id = ?
		  AND NOT EXISTS (SELECT 1 FROM breakdowns WHERE machine_id = ? AND resolved = FALSE)`

	res, err := s.db.ExecContext(ctx, stmt, string(storage.MachineIdle), id, id)
	if err != nil {
		return false, fmt.Errorf("%s: ошибка возврата станка id=%d в IDLE: %w", op, id, err)
	}

	return applied(res, op)
}

const breakdownColumns = `id, tenant_id, machine_id, affected_task_id, type, description, reported_by, reported_at,
	resolved, resolved_at, resolved_by, resolution`

func scanBreakdown(row rowScanner) (*storage.Breakdown, error) {
	var (
		b            storage.Breakdown
		affectedTask sql.NullInt64
		resolvedAt   sql.NullTime
		resolvedBy   sql.NullInt64
		resolution   sql.NullString
	)

	err := row.Scan(&b.ID, &b.TenantID, &b.MachineID, &affectedTask, &b.Type, &b.Description, &b.ReportedBy, &b.ReportedAt,
		&b.Resolved, &resolvedAt, &resolvedBy, &resolution)
	if err != nil {
		return nil, err
	}

	b.AffectedTaskID = int64Ptr(affectedTask)
	b.ResolvedAt = timePtr(resolvedAt)
	b.ResolvedBy = int64Ptr(resolvedBy)
	b.Resolution = stringPtr(resolution)

	return &b, nil
}

func (s *Storage) CreateBreakdown(ctx context.Context, b *storage.Breakdown) (int64, error) {
	const op = "storage.mysql.CreateBreakdown"

	stmt := `INSERT INTO breakdowns (tenant_id, machine_id, affected_task_id, type, description, reported_by, reported_at, resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE)`

	res, err := s.db.ExecContext(ctx, stmt, b.TenantID, b.MachineID, nullInt64(b.AffectedTaskID),
		b.Type, b.Description, b.ReportedBy, b.ReportedAt)
	if err != nil {
		if isMissingReference(err) {
			return 0, fmt.Errorf("%s: machine id=%d: %w", op, b.MachineID, storage.ErrNotFound)
		}
		return 0, fmt.Errorf("%s: ошибка сохранения поломки: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetBreakdown(ctx context.Context, id int64) (*storage.Breakdown, error) {
	const op = "storage.mysql.GetBreakdown"

	stmt := `SELECT ` + breakdownColumns + ` FROM breakdowns WHERE id = ?`

	return queryOne(ctx, s, op, "breakdown", id, scanBreakdown, stmt, id)
}

// ResolveBreakdown закрывает поломку, только если она ещё открыта.
// false без ошибки: поломка уже была закрыта.
func (s *Storage) ResolveBreakdown(ctx context.Context, id int64, resolvedBy int64, resolvedAt time.Time, resolution string) (bool, error) {
	const op = "storage.mysql.ResolveBreakdown"

	stmt := `UPDATE breakdowns SET resolved = TRUE, resolved_at = ?, resolved_by = ?, resolution = ?
		WHERE id = ? AND resolved = FALSE`

	res, err := s.db.ExecContext(ctx, stmt, resolvedAt, resolvedBy, resolution, id)
	if err != nil {
		return false, fmt.Errorf("%s: ошибка закрытия поломки id=%d: %w", op, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n > 0 {
		return true, nil
	}

	// либо уже закрыта, либо её нет
	if _, err := s.GetBreakdown(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Storage) ListOpenBreakdowns(ctx context.Context, machineID int64) ([]*storage.Breakdown, error) {
	const op = "storage.mysql.ListOpenBreakdowns"

	stmt := `SELECT ` + breakdownColumns + ` FROM breakdowns WHERE machine_id = ? AND resolved = FALSE ORDER BY id`

	return queryList(ctx, s, op, scanBreakdown, stmt, machineID)
}

// FindOpenBreakdown ищет открытую поломку с теми же станком, задачей, типом и описанием.
func (s *Storage) FindOpenBreakdown(ctx context.Context, machineID int64, affectedTaskID *int64, typ, description string) (*storage.Breakdown, error) {
	const op = "storage.mysql.FindOpenBreakdown"

	stmt := `SELECT ` + breakdownColumns + ` FROM breakdowns
		WHERE machine_id = ? AND resolved = FALSE AND type = ? AND description = ?
		  AND affected_task_id <=> ?
		ORDER BY id LIMIT 1`

	return queryOne(ctx, s, op, "open breakdown for machine", machineID, scanBreakdown,
		stmt, machineID, typ, description, nullInt64(affectedTaskID))
}
