package memory

import (
	"context"

	"shopfloor/internal/storage"
)

func (s *Storage) AddOrder(o storage.Order) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.id(o.ID)
	s.orders[o.ID] = o
	return o.ID
}

func (s *Storage) AddMO(mo storage.ManufacturingOrder) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	mo.ID = s.id(mo.ID)
	s.mos[mo.ID] = mo
	return mo.ID
}

func (s *Storage) AddJobsheet(js storage.Jobsheet) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	js.ID = s.id(js.ID)
	s.jobsheets[js.ID] = js
	return js.ID
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*storage.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, notFound("storage.memory.GetOrder", "order", id)
	}
	return &o, nil
}

func (s *Storage) ListActiveOrders(ctx context.Context, tenantID int64) ([]*storage.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []*storage.Order
	for _, id := range sortedIDs(s.orders, func(o storage.Order) bool {
		return o.TenantID == tenantID && !o.Status.IsTerminal()
	}) {
		o := s.orders[id]
		orders = append(orders, &o)
	}
	return orders, nil
}

func (s *Storage) UpdateOrderProgress(ctx context.Context, id int64, percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return notFound("storage.memory.UpdateOrderProgress", "order", id)
	}
	o.ProgressPercent = percent
	s.orders[id] = o
	return nil
}

func (s *Storage) GetMO(ctx context.Context, id int64) (*storage.ManufacturingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mo, ok := s.mos[id]
	if !ok {
		return nil, notFound("storage.memory.GetMO", "mo", id)
	}
	return &mo, nil
}

func (s *Storage) ListMOsByOrder(ctx context.Context, orderID int64) ([]*storage.ManufacturingOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mos []*storage.ManufacturingOrder
	for _, id := range sortedIDs(s.mos, func(mo storage.ManufacturingOrder) bool { return mo.OrderID == orderID }) {
		mo := s.mos[id]
		mos = append(mos, &mo)
	}
	return mos, nil
}

func (s *Storage) UpdateMOProgress(ctx context.Context, id int64, percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mo, ok := s.mos[id]
	if !ok {
		return notFound("storage.memory.UpdateMOProgress", "mo", id)
	}
	mo.ProgressPercent = percent
	s.mos[id] = mo
	return nil
}

func (s *Storage) DeleteMO(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mos[id]; !ok {
		return notFound("storage.memory.DeleteMO", "mo", id)
	}
	delete(s.mos, id)
	return nil
}

func (s *Storage) GetJobsheet(ctx context.Context, id int64) (*storage.Jobsheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	js, ok := s.jobsheets[id]
	if !ok {
		return nil, notFound("storage.memory.GetJobsheet", "jobsheet", id)
	}
	return &js, nil
}

func (s *Storage) ListJobsheetsByMO(ctx context.Context, moID int64) ([]*storage.Jobsheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobsheets []*storage.Jobsheet
	for _, id := range sortedIDs(s.jobsheets, func(js storage.Jobsheet) bool { return js.MOID == moID }) {
		js := s.jobsheets[id]
		jobsheets = append(jobsheets, &js)
	}
	return jobsheets, nil
}

func (s *Storage) UpdateJobsheetProgress(ctx context.Context, id int64, percent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	js, ok := s.jobsheets[id]
	if !ok {
		return notFound("storage.memory.UpdateJobsheetProgress", "jobsheet", id)
	}
	js.ProgressPercent = percent
	s.jobsheets[id] = js
	return nil
}

func (s *Storage) DeleteJobsheet(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobsheets[id]; !ok {
		return notFound("storage.memory.DeleteJobsheet", "jobsheet", id)
	}
	delete(s.jobsheets, id)
	return nil
}
