// Package memory: хранилище в памяти с тем же набором операций, что и mysql.Storage.
// Используется для env=local без базы и в тестах сервисов.
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"shopfloor/internal/storage"
)

type Storage struct {
	mu sync.RWMutex

	nextID int64

	orders     map[int64]storage.Order
	mos        map[int64]storage.ManufacturingOrder
	jobsheets  map[int64]storage.Jobsheet
	tasks      map[int64]storage.Task
	machines   map[int64]storage.Machine
	breakdowns map[int64]storage.Breakdown
}

func New() *Storage {
	return &Storage{
		orders:     make(map[int64]storage.Order),
		mos:        make(map[int64]storage.ManufacturingOrder),
		jobsheets:  make(map[int64]storage.Jobsheet),
		tasks:      make(map[int64]storage.Task),
		machines:   make(map[int64]storage.Machine),
		breakdowns: make(map[int64]storage.Breakdown),
	}
}

func (s *Storage) id(current int64) int64 {
	if current != 0 {
		if current > s.nextID {
			s.nextID = current
		}
		return current
	}
	s.nextID++
	return s.nextID
}

func notFound(op string, entity string, id int64) error {
	return fmt.Errorf("%s: %s id=%d: %w", op, entity, id, storage.ErrNotFound)
}

// sortedIDs нужен для детерминированного порядка, как ORDER BY id в mysql.
func sortedIDs[T any](m map[int64]T, keep func(T) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
