package memory

import (
	"context"
	"time"

	"shopfloor/internal/storage"
)

func (s *Storage) AddMachine(m storage.Machine) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.id(m.ID)
	s.machines[m.ID] = m
	return m.ID
}

func (s *Storage) GetMachine(ctx context.Context, id int64) (*storage.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.machines[id]
	if !ok {
		return nil, notFound("storage.memory.GetMachine", "machine", id)
	}
	return &m, nil
}

func (s *Storage) ListMachines(ctx context.Context, tenantID int64) ([]*storage.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var machines []*storage.Machine
	for _, id := range sortedIDs(s.machines, func(m storage.Machine) bool {
		return m.TenantID == tenantID && m.IsActive
	}) {
		m := s.machines[id]
		machines = append(machines, &m)
	}
	return machines, nil
}

func (s *Storage) UpdateMachineStatus(ctx context.Context, id int64, status storage.MachineStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[id]
	if !ok {
		return notFound("storage.memory.UpdateMachineStatus", "machine", id)
	}
	m.Status = status
	s.machines[id] = m
	return nil
}

// Условные переходы станка проверяют и пишут под одной блокировкой, как UPDATE ... WHERE в mysql.

func (s *Storage) MarkMachineBusy(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[id]
	if !ok {
		return false, notFound("storage.memory.MarkMachineBusy", "machine", id)
	}
	if m.Status == storage.MachineDown {
		return false, nil
	}
	m.Status = storage.MachineBusy
	s.machines[id] = m
	return true, nil
}

func (s *Storage) ReleaseMachine(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[id]
	if !ok {
		return false, notFound("storage.memory.ReleaseMachine", "machine", id)
	}
	if m.Status != storage.MachineBusy {
		return false, nil
	}
	for _, t := range s.tasks {
		if t.MachineID != nil && *t.MachineID == id && t.Status == storage.TaskRunning &&
			t.ClockedInAt != nil && t.ClockedOutAt == nil {
			return false, nil
		}
	}
	m.Status = storage.MachineIdle
	s.machines[id] = m
	return true, nil
}

func (s *Storage) RestoreMachineIdle(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[id]
	if !ok {
		return false, notFound("storage.memory.RestoreMachineIdle", "machine", id)
	}
	for _, b := range s.breakdowns {
		if b.MachineID == id && !b.Resolved {
			return false, nil
		}
	}
	m.Status = storage.MachineIdle
	s.machines[id] = m
	return true, nil
}

func (s *Storage) CreateBreakdown(ctx context.Context, b *storage.Breakdown) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.machines[b.MachineID]; !ok {
		return 0, notFound("storage.memory.CreateBreakdown", "machine", b.MachineID)
	}

	rec := *b
	rec.ID = s.id(0)
	s.breakdowns[rec.ID] = rec
	return rec.ID, nil
}

func (s *Storage) GetBreakdown(ctx context.Context, id int64) (*storage.Breakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.breakdowns[id]
	if !ok {
		return nil, notFound("storage.memory.GetBreakdown", "breakdown", id)
	}
	return &b, nil
}

// ResolveBreakdown помечает поломку устранённой. Возвращает false, если она уже была устранена.
func (s *Storage) ResolveBreakdown(ctx context.Context, id int64, resolvedBy int64, resolvedAt time.Time, resolution string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakdowns[id]
	if !ok {
		return false, notFound("storage.memory.ResolveBreakdown", "breakdown", id)
	}
	if b.Resolved {
		return false, nil
	}

	b.Resolved = true
	b.ResolvedAt = &resolvedAt
	b.ResolvedBy = &resolvedBy
	b.Resolution = &resolution
	s.breakdowns[id] = b
	return true, nil
}

func (s *Storage) ListOpenBreakdowns(ctx context.Context, machineID int64) ([]*storage.Breakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []*storage.Breakdown
	for _, id := range sortedIDs(s.breakdowns, func(b storage.Breakdown) bool {
		return b.MachineID == machineID && !b.Resolved
	}) {
		b := s.breakdowns[id]
		open = append(open, &b)
	}
	return open, nil
}

func (s *Storage) FindOpenBreakdown(ctx context.Context, machineID int64, affectedTaskID *int64, typ, description string) (*storage.Breakdown, error) {
	open, err := s.ListOpenBreakdowns(ctx, machineID)
	if err != nil {
		return nil, err
	}

	for _, b := range open {
		if b.Type != typ || b.Description != description {
			continue
		}
		if !sameTask(b.AffectedTaskID, affectedTaskID) {
			continue
		}
		return b, nil
	}

	return nil, notFound("storage.memory.FindOpenBreakdown", "machine", machineID)
}

func sameTask(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
