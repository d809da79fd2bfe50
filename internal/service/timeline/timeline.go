package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

// сколько заказов грузим параллельно
const loadConcurrency = 4

type Storage interface {
	GetOrder(ctx context.Context, id int64) (*storage.Order, error)
	ListActiveOrders(ctx context.Context, tenantID int64) ([]*storage.Order, error)
	ListMOsByOrder(ctx context.Context, orderID int64) ([]*storage.ManufacturingOrder, error)
	ListJobsheetsByMO(ctx context.Context, moID int64) ([]*storage.Jobsheet, error)
	ListTasksByJobsheet(ctx context.Context, jobsheetID int64) ([]*storage.Task, error)
}

type Service struct {
	log     *slog.Logger
	storage Storage
}

func NewService(log *slog.Logger, storage Storage) *Service {
	return &Service{log: log, storage: storage}
}

// Timeline строит ленту для указанных заказов; пустой список: все незакрытые заказы арендатора.
func (s *Service) Timeline(ctx context.Context, scope service.Scope, orderIDs []int64) ([]Entry, error) {
	trees, err := s.Snapshot(ctx, scope, orderIDs)
	if err != nil {
		return nil, err
	}
	return Flatten(trees), nil
}

// Snapshot читает иерархию заказов. Заказы грузятся параллельно, порядок входа сохраняется.
func (s *Service) Snapshot(ctx context.Context, scope service.Scope, orderIDs []int64) ([]OrderTree, error) {
	const op = "service.timeline.Snapshot"

	orders, err := s.orders(ctx, scope, orderIDs)
	if err != nil {
		return nil, err
	}

	trees := make([]OrderTree, len(orders))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for i, o := range orders {
		g.Go(func() error {
			tree, err := s.loadOrder(gCtx, o)
			if err != nil {
				return fmt.Errorf("order id=%d: %w", o.ID, err)
			}
			trees[i] = tree
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, service.ErrStore, err)
	}

	return trees, nil
}

func (s *Service) orders(ctx context.Context, scope service.Scope, orderIDs []int64) ([]*storage.Order, error) {
	const op = "service.timeline.orders"

	if len(orderIDs) == 0 {
		orders, err := s.storage.ListActiveOrders(ctx, scope.TenantID)
		if err != nil {
			return nil, service.Step(op, "list active orders", "tenant", scope.TenantID, err)
		}
		return orders, nil
	}

	orders := make([]*storage.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		o, err := s.storage.GetOrder(ctx, id)
		if err == nil && !scope.Owns(o.TenantID) {
			err = storage.ErrNotFound
		}
		if err != nil {
			if service.Classify(err) == service.ErrNotFound {
				s.log.Warn("order skipped in timeline", slog.String("op", op), slog.Int64("order_id", id))
				continue
			}
			return nil, service.Step(op, "load order", "order", id, err)
		}
		if o.Status.IsTerminal() {
			continue
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func (s *Service) loadOrder(ctx context.Context, o *storage.Order) (OrderTree, error) {
	tree := OrderTree{Order: o}

	mos, err := s.storage.ListMOsByOrder(ctx, o.ID)
	if err != nil {
		return tree, err
	}

	for _, mo := range mos {
		mt := MOTree{MO: mo}

		jobsheets, err := s.storage.ListJobsheetsByMO(ctx, mo.ID)
		if err != nil {
			return tree, err
		}

		for _, js := range jobsheets {
			tasks, err := s.storage.ListTasksByJobsheet(ctx, js.ID)
			if err != nil {
				return tree, err
			}
			mt.Jobsheets = append(mt.Jobsheets, JobsheetTree{Jobsheet: js, Tasks: tasks})
		}

		tree.MOs = append(tree.MOs, mt)
	}

	return tree, nil
}
