package breakdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

// DefaultResolution: фиксированная отметка об устранении.
const DefaultResolution = "Resolved by operator"

type Storage interface {
	GetMachine(ctx context.Context, id int64) (*storage.Machine, error)
	ListMachines(ctx context.Context, tenantID int64) ([]*storage.Machine, error)
	UpdateMachineStatus(ctx context.Context, id int64, status storage.MachineStatus) error
	RestoreMachineIdle(ctx context.Context, id int64) (bool, error)

	GetTask(ctx context.Context, id int64) (*storage.Task, error)
	UpdateTaskBreakdown(ctx context.Context, id int64, breakdownAt *time.Time, note *string, resolvedAt *time.Time) error
	ClearTaskBreakdown(ctx context.Context, id int64, resolvedAt time.Time) error

	CreateBreakdown(ctx context.Context, b *storage.Breakdown) (int64, error)
	GetBreakdown(ctx context.Context, id int64) (*storage.Breakdown, error)
	ResolveBreakdown(ctx context.Context, id int64, resolvedBy int64, resolvedAt time.Time, resolution string) (bool, error)
	ListOpenBreakdowns(ctx context.Context, machineID int64) ([]*storage.Breakdown, error)
	FindOpenBreakdown(ctx context.Context, machineID int64, affectedTaskID *int64, typ, description string) (*storage.Breakdown, error)
}

type ReportInput struct {
	MachineID      int64  `json:"machine_id"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	AffectedTaskID *int64 `json:"affected_task_id,omitempty"`
}

func (in ReportInput) Validate() error {
	var missing []string
	if in.MachineID == 0 {
		missing = append(missing, "machine_id")
	}
	if strings.TrimSpace(in.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return service.Validation("required fields missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

type Service struct {
	log     *slog.Logger
	storage Storage
	now     func() time.Time
}

func NewService(log *slog.Logger, storage Storage) *Service {
	return &Service{log: log, storage: storage, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Report регистрирует поломку станка: запись поломки, станок в DOWN, отметка на задаче.
// Шаги независимы; при падении шага k шаги 1..k-1 остаются закоммиченными.
// Повторный вызов после частичного сбоя не плодит дубликат: открытая поломка с теми же
// станком, задачей, типом и описанием переиспользуется.
func (s *Service) Report(ctx context.Context, scope service.Scope, in ReportInput) (*storage.Breakdown, error) {
	const op = "service.breakdown.Report"

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	machine, err := s.storage.GetMachine(ctx, in.MachineID)
	if err == nil && !scope.Owns(machine.TenantID) {
		err = storage.ErrNotFound
	}
	if err != nil {
		if service.Classify(err) == service.ErrNotFound {
			return nil, fmt.Errorf("%s: machine id=%d: %w", op, in.MachineID, service.ErrMachineNotFound)
		}
		return nil, service.Step(op, "load machine", "machine", in.MachineID, err)
	}

	var task *storage.Task
	if in.AffectedTaskID != nil {
		task, err = s.storage.GetTask(ctx, *in.AffectedTaskID)
		if err == nil && !scope.Owns(task.TenantID) {
			err = storage.ErrNotFound
		}
		if err != nil {
			return nil, service.Step(op, "load task", "task", *in.AffectedTaskID, err)
		}
	}

	now := s.now()

	b, err := s.storage.FindOpenBreakdown(ctx, machine.ID, in.AffectedTaskID, in.Type, in.Description)
	switch {
	case err == nil:
		s.log.Info("open breakdown already registered, reusing",
			slog.String("op", op),
			slog.Int64("breakdown_id", b.ID),
			slog.Int64("machine_id", machine.ID),
		)
	case errors.Is(err, storage.ErrNotFound):
		b = &storage.Breakdown{
			TenantID:       scope.TenantID,
			MachineID:      machine.ID,
			AffectedTaskID: in.AffectedTaskID,
			Type:           in.Type,
			Description:    in.Description,
			ReportedBy:     scope.UserID,
			ReportedAt:     now,
		}
		id, err := s.storage.CreateBreakdown(ctx, b)
		if err != nil {
			return nil, service.Step(op, "create breakdown", "machine", machine.ID, err)
		}
		b.ID = id
	default:
		return nil, service.Step(op, "find open breakdown", "machine", machine.ID, err)
	}

	// пишем всегда: снимок статуса мог устареть, а DOWN после записи поломки
	// перекрывает любой параллельный BUSY/IDLE
	if err := s.storage.UpdateMachineStatus(ctx, machine.ID, storage.MachineDown); err != nil {
		return b, service.Step(op, "mark machine down", "machine", machine.ID, err)
	}

	if task != nil {
		note := in.Description
		if err := s.storage.UpdateTaskBreakdown(ctx, task.ID, &now, &note, nil); err != nil {
			return b, service.Step(op, "stamp task", "task", task.ID, err)
		}
	}

	s.log.Info("breakdown reported",
		slog.String("op", op),
		slog.Int64("breakdown_id", b.ID),
		slog.Int64("machine_id", machine.ID),
		slog.String("type", in.Type),
		slog.Int64("user_id", scope.UserID),
	)

	return b, nil
}

// Resolve закрывает поломку. Станок возвращается в IDLE (не в BUSY) только если
// на нём не осталось других открытых поломок.
func (s *Service) Resolve(ctx context.Context, scope service.Scope, breakdownID int64) (*storage.Breakdown, error) {
	const op = "service.breakdown.Resolve"

	b, err := s.storage.GetBreakdown(ctx, breakdownID)
	if err == nil && !scope.Owns(b.TenantID) {
		err = storage.ErrNotFound
	}
	if err != nil {
		return nil, service.Step(op, "load breakdown", "breakdown", breakdownID, err)
	}

	if b.Resolved {
		return b, fmt.Errorf("%s: breakdown id=%d: %w", op, b.ID, service.ErrAlreadyResolved)
	}

	now := s.now()
	resolution := DefaultResolution

	ok, err := s.storage.ResolveBreakdown(ctx, b.ID, scope.UserID, now, resolution)
	if err != nil {
		return nil, service.Step(op, "resolve breakdown", "breakdown", b.ID, err)
	}
	if !ok {
		// кто-то закрыл её между чтением и записью
		return b, fmt.Errorf("%s: breakdown id=%d: %w", op, b.ID, service.ErrAlreadyResolved)
	}

	userID := scope.UserID
	b.Resolved = true
	b.ResolvedAt = &now
	b.ResolvedBy = &userID
	b.Resolution = &resolution

	idle, err := s.storage.RestoreMachineIdle(ctx, b.MachineID)
	if err != nil {
		return b, service.Step(op, "mark machine idle", "machine", b.MachineID, err)
	}
	if !idle {
		s.log.Info("machine stays down, other breakdowns still open",
			slog.String("op", op),
			slog.Int64("machine_id", b.MachineID),
		)
	}

	if b.AffectedTaskID != nil {
		if err := s.storage.ClearTaskBreakdown(ctx, *b.AffectedTaskID, now); err != nil {
			return b, service.Step(op, "clear task breakdown", "task", *b.AffectedTaskID, err)
		}
	}

	s.log.Info("breakdown resolved",
		slog.String("op", op),
		slog.Int64("breakdown_id", b.ID),
		slog.Int64("machine_id", b.MachineID),
		slog.Int64("user_id", scope.UserID),
	)

	return b, nil
}

// OpenForMachine возвращает открытые поломки станка.
func (s *Service) OpenForMachine(ctx context.Context, scope service.Scope, machineID int64) ([]*storage.Breakdown, error) {
	const op = "service.breakdown.OpenForMachine"

	machine, err := s.storage.GetMachine(ctx, machineID)
	if err == nil && !scope.Owns(machine.TenantID) {
		err = storage.ErrNotFound
	}
	if err != nil {
		if service.Classify(err) == service.ErrNotFound {
			return nil, fmt.Errorf("%s: machine id=%d: %w", op, machineID, service.ErrMachineNotFound)
		}
		return nil, service.Step(op, "load machine", "machine", machineID, err)
	}

	open, err := s.storage.ListOpenBreakdowns(ctx, machine.ID)
	if err != nil {
		return nil, service.Step(op, "list open breakdowns", "machine", machine.ID, err)
	}
	return open, nil
}

// Machines: активные станки арендатора с текущим статусом.
func (s *Service) Machines(ctx context.Context, scope service.Scope) ([]*storage.Machine, error) {
	const op = "service.breakdown.Machines"

	machines, err := s.storage.ListMachines(ctx, scope.TenantID)
	if err != nil {
		return nil, service.Step(op, "list machines", "tenant", scope.TenantID, err)
	}
	if machines == nil {
		machines = []*storage.Machine{}
	}
	return machines, nil
}
