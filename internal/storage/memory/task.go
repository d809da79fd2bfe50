package memory

import (
	"context"
	"time"

	"shopfloor/internal/storage"
)

func (s *Storage) AddTask(t storage.Task) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.id(t.ID)
	s.tasks[t.ID] = t
	return t.ID
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, notFound("storage.memory.GetTask", "task", id)
	}
	return &t, nil
}

func (s *Storage) ListTasksByJobsheet(ctx context.Context, jobsheetID int64) ([]*storage.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*storage.Task
	for _, id := range sortedIDs(s.tasks, func(t storage.Task) bool { return t.JobsheetID == jobsheetID }) {
		t := s.tasks[id]
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

func (s *Storage) UpdateTaskProgress(ctx context.Context, id int64, percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return notFound("storage.memory.UpdateTaskProgress", "task", id)
	}
	t.ProgressPercent = percent
	s.tasks[id] = t
	return nil
}

func (s *Storage) UpdateTaskClock(ctx context.Context, task *storage.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[task.ID]
	if !ok {
		return notFound("storage.memory.UpdateTaskClock", "task", task.ID)
	}
	t.Status = task.Status
	t.ClockedInAt = cloneTime(task.ClockedInAt)
	t.ClockedOutAt = cloneTime(task.ClockedOutAt)
	if task.ActualHours != nil {
		h := *task.ActualHours
		t.ActualHours = &h
	}
	s.tasks[task.ID] = t
	return nil
}

func (s *Storage) UpdateTaskBreakdown(ctx context.Context, id int64, breakdownAt *time.Time, note *string, resolvedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return notFound("storage.memory.UpdateTaskBreakdown", "task", id)
	}
	t.BreakdownAt = cloneTime(breakdownAt)
	if note != nil {
		n := *note
		t.BreakdownNote = &n
	} else {
		t.BreakdownNote = nil
	}
	t.BreakdownResolvedAt = cloneTime(resolvedAt)
	s.tasks[id] = t
	return nil
}

func (s *Storage) ClearTaskBreakdown(ctx context.Context, id int64, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return notFound("storage.memory.ClearTaskBreakdown", "task", id)
	}
	t.BreakdownNote = nil
	t.BreakdownResolvedAt = &resolvedAt
	s.tasks[id] = t
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return notFound("storage.memory.DeleteTask", "task", id)
	}
	delete(s.tasks, id)
	return nil
}
