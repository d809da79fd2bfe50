// Package app собирает хранилище и сервисы движка; общий для сервера и shopctl.
package app

import (
	"fmt"
	"log/slog"

	"shopfloor/internal/config"
	"shopfloor/internal/service/breakdown"
	generate_excel "shopfloor/internal/service/generate-excel"
	"shopfloor/internal/service/progress"
	"shopfloor/internal/service/tasks"
	"shopfloor/internal/service/timeline"
	"shopfloor/internal/storage/memory"
	"shopfloor/internal/storage/mysql"
)

// Store: всё, что сервисам нужно от хранилища.
type Store interface {
	progress.Storage
	tasks.Storage
	breakdown.Storage
	timeline.Storage
}

type App struct {
	Store      Store
	Progress   *progress.Aggregator
	Tasks      *tasks.Service
	Breakdowns *breakdown.Service
	Timeline   *timeline.Service
	Excel      *generate_excel.GenerateExcelService

	closeFn func() error
}

func New(cfg config.Config, log *slog.Logger) (*App, error) {
	const op = "app.New"

	var (
		store   Store
		closeFn = func() error { return nil }
	)

	switch cfg.StorageDriver {
	case config.StorageMySQL, "":
		st, err := mysql.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		store, closeFn = st, st.Close
	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		store = memory.New()
	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.StorageDriver)
	}

	return Wire(log, store, closeFn), nil
}

// Wire связывает сервисы поверх готового хранилища.
func Wire(log *slog.Logger, store Store, closeFn func() error) *App {
	agg := progress.NewAggregator(log, store)
	tl := timeline.NewService(log, store)

	return &App{
		Store:      store,
		Progress:   agg,
		Tasks:      tasks.NewService(log, store, agg),
		Breakdowns: breakdown.NewService(log, store),
		Timeline:   tl,
		Excel:      generate_excel.NewGenerateService(tl),
		closeFn:    closeFn,
	}
}

func (a *App) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}
