package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

type Level string

const (
	LevelJobsheet Level = "jobsheet"
	LevelMO       Level = "mo"
	LevelOrder    Level = "order"
)

func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelJobsheet, LevelMO, LevelOrder:
		return Level(s), nil
	}
	return "", service.Validation("unknown level %q", s)
}

type Storage interface {
	GetJobsheet(ctx context.Context, id int64) (*storage.Jobsheet, error)
	GetMO(ctx context.Context, id int64) (*storage.ManufacturingOrder, error)
	GetOrder(ctx context.Context, id int64) (*storage.Order, error)

	ListTasksByJobsheet(ctx context.Context, jobsheetID int64) ([]*storage.Task, error)
	ListJobsheetsByMO(ctx context.Context, moID int64) ([]*storage.Jobsheet, error)
	ListMOsByOrder(ctx context.Context, orderID int64) ([]*storage.ManufacturingOrder, error)

	UpdateJobsheetProgress(ctx context.Context, id int64, percent int) error
	UpdateMOProgress(ctx context.Context, id int64, percent int) error
	UpdateOrderProgress(ctx context.Context, id int64, percent int) error
}

// Step: один уровень пересчёта.
type Step struct {
	Level Level `json:"level"`
	ID    int64 `json:"id"`
}

// Cascade: упорядоченный снизу вверх план пересчёта и снимки затронутых сущностей.
// Снимки, до которых план не дошёл, остаются nil.
type Cascade struct {
	Steps    []Step                      `json:"steps"`
	Jobsheet *storage.Jobsheet           `json:"jobsheet,omitempty"`
	MO       *storage.ManufacturingOrder `json:"mo,omitempty"`
	Order    *storage.Order              `json:"order,omitempty"`
}

type Aggregator struct {
	log     *slog.Logger
	storage Storage
}

func NewAggregator(log *slog.Logger, storage Storage) *Aggregator {
	return &Aggregator{log: log, storage: storage}
}

// FromTask пересчитывает наряд задачи и всех его предков.
// Отсутствующий предок останавливает каскад с ErrOrphanedChild, уже выполненные шаги остаются.
func (a *Aggregator) FromTask(ctx context.Context, scope service.Scope, task *storage.Task) (*Cascade, error) {
	return a.cascade(ctx, scope, LevelJobsheet, task.JobsheetID, service.ErrOrphanedChild)
}

// Recompute пересчитывает указанный уровень и всё, что выше. Используется после удаления детей.
func (a *Aggregator) Recompute(ctx context.Context, scope service.Scope, level Level, id int64) (*Cascade, error) {
	return a.cascade(ctx, scope, level, id, service.ErrNotFound)
}

func (a *Aggregator) cascade(ctx context.Context, scope service.Scope, level Level, id int64, missingKind error) (*Cascade, error) {
	const op = "service.progress.cascade"

	c, planErr := a.Plan(ctx, scope, level, id, missingKind)
	if planErr != nil && !errors.Is(planErr, service.ErrOrphanedChild) {
		return c, planErr
	}

	if err := a.Run(ctx, c); err != nil {
		return c, err
	}

	if planErr != nil {
		a.log.Warn("cascade stopped at missing ancestor",
			slog.String("op", op),
			slog.String("level", string(level)),
			slog.Int64("id", id),
			slog.String("error", planErr.Error()),
		)
	}

	return c, planErr
}

// Plan поднимается от (level, id) к заказу и строит список шагов.
// missingKind определяет, как классифицировать отсутствие самой первой сущности.
func (a *Aggregator) Plan(ctx context.Context, scope service.Scope, level Level, id int64, missingKind error) (*Cascade, error) {
	const op = "service.progress.Plan"

	c := &Cascade{}
	kind := missingKind

	missing := func(l Level, id int64, err error) error {
		k := kind
		if service.Classify(err) != service.ErrNotFound {
			k = service.ErrStore
		}
		return &service.StepError{Op: op, Step: "resolve " + string(l), Entity: string(l), ID: id, Kind: k, Err: err}
	}

	switch level {
	case LevelJobsheet, LevelMO, LevelOrder:
	default:
		return c, service.Validation("unknown level %q", level)
	}

	if level == LevelJobsheet {
		js, err := a.storage.GetJobsheet(ctx, id)
		if err == nil && !scope.Owns(js.TenantID) {
			err = storage.ErrNotFound
		}
		if err != nil {
			return c, missing(LevelJobsheet, id, err)
		}
		c.Jobsheet = js
		c.Steps = append(c.Steps, Step{Level: LevelJobsheet, ID: js.ID})

		level, id = LevelMO, js.MOID
		kind = service.ErrOrphanedChild
	}

	if level == LevelMO {
		mo, err := a.storage.GetMO(ctx, id)
		if err == nil && !scope.Owns(mo.TenantID) {
			err = storage.ErrNotFound
		}
		if err != nil {
			return c, missing(LevelMO, id, err)
		}
		c.MO = mo
		c.Steps = append(c.Steps, Step{Level: LevelMO, ID: mo.ID})

		level, id = LevelOrder, mo.OrderID
		kind = service.ErrOrphanedChild
	}

	order, err := a.storage.GetOrder(ctx, id)
	if err == nil && !scope.Owns(order.TenantID) {
		err = storage.ErrNotFound
	}
	if err != nil {
		return c, missing(LevelOrder, id, err)
	}
	c.Order = order
	c.Steps = append(c.Steps, Step{Level: LevelOrder, ID: order.ID})

	return c, nil
}

// Run выполняет шаги по порядку. Каждый шаг заново читает полный набор детей
// и записывает результат одной атомарной операцией; упавший шаг прерывает каскад.
func (a *Aggregator) Run(ctx context.Context, c *Cascade) error {
	const op = "service.progress.Run"

	for _, st := range c.Steps {
		percent, err := a.recomputeStep(ctx, st)
		if err != nil {
			return err
		}

		switch st.Level {
		case LevelJobsheet:
			c.Jobsheet.ProgressPercent = percent
		case LevelMO:
			c.MO.ProgressPercent = percent
		case LevelOrder:
			c.Order.ProgressPercent = percent
		}

		a.log.Debug("progress recomputed",
			slog.String("op", op),
			slog.String("level", string(st.Level)),
			slog.Int64("id", st.ID),
			slog.Int("percent", percent),
		)
	}

	return nil
}

func (a *Aggregator) recomputeStep(ctx context.Context, st Step) (int, error) {
	const op = "service.progress.recomputeStep"

	switch st.Level {
	case LevelJobsheet:
		tasks, err := a.storage.ListTasksByJobsheet(ctx, st.ID)
		if err != nil {
			return 0, service.Step(op, "list tasks", string(st.Level), st.ID, err)
		}
		percent := JobsheetProgress(tasks)
		if err := a.storage.UpdateJobsheetProgress(ctx, st.ID, percent); err != nil {
			return 0, service.Step(op, "update jobsheet progress", string(st.Level), st.ID, err)
		}
		return percent, nil

	case LevelMO:
		jobsheets, err := a.storage.ListJobsheetsByMO(ctx, st.ID)
		if err != nil {
			return 0, service.Step(op, "list jobsheets", string(st.Level), st.ID, err)
		}
		percent := MOProgress(jobsheets)
		if err := a.storage.UpdateMOProgress(ctx, st.ID, percent); err != nil {
			return 0, service.Step(op, "update mo progress", string(st.Level), st.ID, err)
		}
		return percent, nil

	case LevelOrder:
		mos, err := a.storage.ListMOsByOrder(ctx, st.ID)
		if err != nil {
			return 0, service.Step(op, "list mos", string(st.Level), st.ID, err)
		}
		percent := OrderProgress(mos)
		if err := a.storage.UpdateOrderProgress(ctx, st.ID, percent); err != nil {
			return 0, service.Step(op, "update order progress", string(st.Level), st.ID, err)
		}
		return percent, nil
	}

	return 0, fmt.Errorf("%s: %w", op, service.Validation("unknown level %q", st.Level))
}
