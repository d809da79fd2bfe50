package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"shopfloor/internal/service"
	"shopfloor/internal/service/progress"
	"shopfloor/internal/storage"
)

const (
	ActionClockIn  = "clock_in"
	ActionClockOut = "clock_out"
	ActionPause    = "pause"
)

type Storage interface {
	GetTask(ctx context.Context, id int64) (*storage.Task, error)
	UpdateTaskClock(ctx context.Context, task *storage.Task) error
	UpdateTaskProgress(ctx context.Context, id int64, percent int) error

	GetMachine(ctx context.Context, id int64) (*storage.Machine, error)
	MarkMachineBusy(ctx context.Context, id int64) (bool, error)
	ReleaseMachine(ctx context.Context, id int64) (bool, error)
}

type Cascader interface {
	FromTask(ctx context.Context, scope service.Scope, task *storage.Task) (*progress.Cascade, error)
}

// ProgressResult: снимки всей цепочки после изменения прогресса задачи.
type ProgressResult struct {
	Task     *storage.Task               `json:"task"`
	Jobsheet *storage.Jobsheet           `json:"jobsheet,omitempty"`
	MO       *storage.ManufacturingOrder `json:"mo,omitempty"`
	Order    *storage.Order              `json:"order,omitempty"`
}

type Service struct {
	log     *slog.Logger
	storage Storage
	cascade Cascader
	now     func() time.Time
}

func NewService(log *slog.Logger, storage Storage, cascade Cascader) *Service {
	return &Service{
		log:     log,
		storage: storage,
		cascade: cascade,
		now:     time.Now,
	}
}

// SetClock подменяет источник времени (тесты).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Apply выполняет действие оператора по имени.
func (s *Service) Apply(ctx context.Context, scope service.Scope, taskID int64, action string) (*storage.Task, error) {
	const op = "service.tasks.Apply"

	switch action {
	case ActionClockIn:
		return s.ClockIn(ctx, scope, taskID)
	case ActionClockOut:
		return s.ClockOut(ctx, scope, taskID)
	case ActionPause:
		return s.Pause(ctx, scope, taskID)
	}

	return nil, fmt.Errorf("%s: unknown action %q: %w", op, action, service.ErrInvalidAction)
}

// ClockIn начинает новую сессию: clockedInAt = now, clockedOutAt очищается, статус RUNNING.
func (s *Service) ClockIn(ctx context.Context, scope service.Scope, taskID int64) (*storage.Task, error) {
	const op = "service.tasks.ClockIn"

	task, err := s.load(ctx, op, scope, taskID)
	if err != nil {
		return nil, err
	}

	status, err := s.fire(op, task, EventClockIn)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task.Status = status
	task.ClockedInAt = &now
	task.ClockedOutAt = nil

	if err := s.storage.UpdateTaskClock(ctx, task); err != nil {
		return nil, service.Step(op, "update task", "task", task.ID, err)
	}

	s.log.Info("task clocked in",
		slog.String("op", op),
		slog.Int64("task_id", task.ID),
		slog.Int64("user_id", scope.UserID),
	)

	if err := s.syncMachine(ctx, op, scope, task, storage.MachineBusy); err != nil {
		return task, err
	}

	return task, nil
}

// ClockOut закрывает сессию. Без предшествующего clock in часы не трогаются.
// Статус не меняется: закрыть задачу: отдельное решение оператора.
func (s *Service) ClockOut(ctx context.Context, scope service.Scope, taskID int64) (*storage.Task, error) {
	const op = "service.tasks.ClockOut"

	task, err := s.load(ctx, op, scope, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if task.ClockedInAt != nil {
		hours := round2(now.Sub(*task.ClockedInAt).Hours())
		task.ActualHours = &hours
	} else {
		s.log.Warn("clock out without clock in, actual hours left unchanged",
			slog.String("op", op),
			slog.Int64("task_id", task.ID),
		)
	}
	task.ClockedOutAt = &now

	if err := s.storage.UpdateTaskClock(ctx, task); err != nil {
		return nil, service.Step(op, "update task", "task", task.ID, err)
	}

	s.log.Info("task clocked out",
		slog.String("op", op),
		slog.Int64("task_id", task.ID),
		slog.Int64("user_id", scope.UserID),
	)

	if err := s.syncMachine(ctx, op, scope, task, storage.MachineIdle); err != nil {
		return task, err
	}

	return task, nil
}

// Pause ставит задачу на паузу, не закрывая сессию.
func (s *Service) Pause(ctx context.Context, scope service.Scope, taskID int64) (*storage.Task, error) {
	const op = "service.tasks.Pause"

	task, err := s.load(ctx, op, scope, taskID)
	if err != nil {
		return nil, err
	}

	status, err := s.fire(op, task, EventPause)
	if err != nil {
		return nil, err
	}
	task.Status = status

	if err := s.storage.UpdateTaskClock(ctx, task); err != nil {
		return nil, service.Step(op, "update task", "task", task.ID, err)
	}

	return task, nil
}

// SetTaskProgress записывает прогресс задачи и пересчитывает наряд, MO и заказ.
// Если предок не найден, задача уже сохранена, а ошибка оборачивает ErrOrphanedChild.
func (s *Service) SetTaskProgress(ctx context.Context, scope service.Scope, taskID int64, percent int) (*ProgressResult, error) {
	const op = "service.tasks.SetTaskProgress"

	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("%s: %w", op, service.Validation("progress %d is outside [0, 100]", percent))
	}

	task, err := s.load(ctx, op, scope, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.storage.UpdateTaskProgress(ctx, task.ID, percent); err != nil {
		return nil, service.Step(op, "update task progress", "task", task.ID, err)
	}
	task.ProgressPercent = percent

	result := &ProgressResult{Task: task}

	c, err := s.cascade.FromTask(ctx, scope, task)
	if c != nil {
		result.Jobsheet = c.Jobsheet
		result.MO = c.MO
		result.Order = c.Order
	}
	if err != nil {
		return result, err
	}

	s.log.Info("task progress updated",
		slog.String("op", op),
		slog.Int64("task_id", task.ID),
		slog.Int("percent", percent),
		slog.Int("order_percent", result.Order.ProgressPercent),
	)

	return result, nil
}

func (s *Service) load(ctx context.Context, op string, scope service.Scope, taskID int64) (*storage.Task, error) {
	task, err := s.storage.GetTask(ctx, taskID)
	if err == nil && !scope.Owns(task.TenantID) {
		err = storage.ErrNotFound
	}
	if err != nil {
		return nil, service.Step(op, "load task", "task", taskID, err)
	}
	return task, nil
}

func (s *Service) fire(op string, task *storage.Task, event string) (storage.TaskStatus, error) {
	lc, err := NewLifecycle(task)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	status, err := lc.Fire(event)
	if err != nil {
		return "", fmt.Errorf("%s: task %d: %w", op, task.ID, err)
	}
	return status, nil
}

// syncMachine переводит станок задачи в BUSY/IDLE. Решение принимает хранилище одной
// условной записью: DOWN не трогается (из него выводит только устранение поломки),
// а IDLE ставится, только когда на станке не осталось открытых сессий.
func (s *Service) syncMachine(ctx context.Context, op string, scope service.Scope, task *storage.Task, target storage.MachineStatus) error {
	if task.MachineID == nil {
		return nil
	}
	id := *task.MachineID

	machine, err := s.storage.GetMachine(ctx, id)
	if err == nil && !scope.Owns(machine.TenantID) {
		err = storage.ErrNotFound
	}
	if err != nil {
		return service.Step(op, "load machine", "machine", id, err)
	}

	var changed bool
	switch target {
	case storage.MachineBusy:
		changed, err = s.storage.MarkMachineBusy(ctx, id)
	case storage.MachineIdle:
		changed, err = s.storage.ReleaseMachine(ctx, id)
	default:
		return fmt.Errorf("%s: unexpected machine status %q", op, target)
	}
	if err != nil {
		return service.Step(op, "update machine status", "machine", id, err)
	}

	if !changed {
		s.log.Debug("machine status kept",
			slog.String("op", op),
			slog.Int64("machine_id", id),
			slog.String("target", string(target)),
		)
	}
	return nil
}

func round2(h float64) float64 {
	return math.Round(h*100) / 100
}
