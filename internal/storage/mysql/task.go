package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shopfloor/internal/storage"
)

const taskColumns = `id, tenant_id, jobsheet_id, name, status, progress_percent,
	planned_hours, actual_hours, planned_start_date, planned_end_date,
	clocked_in_at, clocked_out_at, breakdown_at, breakdown_note, breakdown_resolved_at,
	machine_id, assigned_to`

func scanTask(row rowScanner) (*storage.Task, error) {
	var (
		t                           storage.Task
		plannedHours, actualHours   sql.NullFloat64
		plannedStart, plannedEnd    sql.NullTime
		clockedIn, clockedOut       sql.NullTime
		breakdownAt, breakdownSolve sql.NullTime
		breakdownNote               sql.NullString
		machineID, assignedTo       sql.NullInt64
	)

	err := row.Scan(&t.ID, &t.TenantID, &t.JobsheetID, &t.Name, &t.Status, &t.ProgressPercent,
		&plannedHours, &actualHours, &plannedStart, &plannedEnd,
		&clockedIn, &clockedOut, &breakdownAt, &breakdownNote, &breakdownSolve,
		&machineID, &assignedTo)
	if err != nil {
		return nil, err
	}

	t.PlannedHours = floatPtr(plannedHours)
	t.ActualHours = floatPtr(actualHours)
	t.PlannedStartDate = timePtr(plannedStart)
	t.PlannedEndDate = timePtr(plannedEnd)
	t.ClockedInAt = timePtr(clockedIn)
	t.ClockedOutAt = timePtr(clockedOut)
	t.BreakdownAt = timePtr(breakdownAt)
	t.BreakdownNote = stringPtr(breakdownNote)
	t.BreakdownResolvedAt = timePtr(breakdownSolve)
	t.MachineID = int64Ptr(machineID)
	t.AssignedTo = int64Ptr(assignedTo)

	return &t, nil
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*storage.Task, error) {
	const op = "storage.mysql.GetTask"

	stmt := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	return queryOne(ctx, s, op, "task", id, scanTask, stmt, id)
}

func (s *Storage) ListTasksByJobsheet(ctx context.Context, jobsheetID int64) ([]*storage.Task, error) {
	const op = "storage.mysql.ListTasksByJobsheet"

	stmt := `SELECT ` + taskColumns + ` FROM tasks WHERE jobsheet_id = ? ORDER BY id`

	return queryList(ctx, s, op, scanTask, stmt, jobsheetID)
}

func (s *Storage) UpdateTaskProgress(ctx context.Context, id int64, percent int) error {
	const op = "storage.mysql.UpdateTaskProgress"

	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET progress_percent = ? WHERE id = ?`, percent, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления прогресса задачи id=%d: %w", op, id, err)
	}

	return expectOne(res, op, "task", id)
}

// UpdateTaskClock пишет статус и поля сессии задачи одной строкой.
func (s *Storage) UpdateTaskClock(ctx context.Context, task *storage.Task) error {
	const op = "storage.mysql.UpdateTaskClock"

	stmt := `UPDATE tasks SET status = ?, clocked_in_at = ?, clocked_out_at = ?, actual_hours = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, stmt,
		string(task.Status),
		nullTime(task.ClockedInAt),
		nullTime(task.ClockedOutAt),
		nullFloat(task.ActualHours),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: ошибка обновления сессии задачи id=%d: %w", op, task.ID, err)
	}

	return expectOne(res, op, "task", task.ID)
}

func (s *Storage) UpdateTaskBreakdown(ctx context.Context, id int64, breakdownAt *time.Time, note *string, resolvedAt *time.Time) error {
	const op = "storage.mysql.UpdateTaskBreakdown"

	stmt := `UPDATE tasks SET breakdown_at = ?, breakdown_note = ?, breakdown_resolved_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, stmt, nullTime(breakdownAt), nullString(note), nullTime(resolvedAt), id)
	if err != nil {
		return fmt.Errorf("%s: ошибка отметки поломки на задаче id=%d: %w", op, id, err)
	}

	return expectOne(res, op, "task", id)
}

// ClearTaskBreakdown снимает отметку поломки с задачи; breakdown_at остаётся как история.
func (s *Storage) ClearTaskBreakdown(ctx context.Context, id int64, resolvedAt time.Time) error {
	const op = "storage.mysql.ClearTaskBreakdown"

	stmt := `UPDATE tasks SET breakdown_note = NULL, breakdown_resolved_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, stmt, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("%s: ошибка снятия поломки с задачи id=%d: %w", op, id, err)
	}

	return expectOne(res, op, "task", id)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
