package recompute

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/service"
	"shopfloor/internal/service/progress"
)

type Recomputer interface {
	Recompute(ctx context.Context, scope service.Scope, level progress.Level, id int64) (*progress.Cascade, error)
}

// RecomputeProgress handles POST /api/admin/recompute/{level}/{id}.
// Нужен после удаления задач, нарядов или MO: пересчитывает уровень и всё выше.
func RecomputeProgress(log *slog.Logger, rec Recomputer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.RecomputeProgress"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scope, ok := auth.ScopeFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		level, err := progress.ParseLevel(chi.URLParam(r, "level"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid ID", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		c, err := rec.Recompute(ctx, scope, level, id)
		if err != nil {
			if errors.Is(err, service.ErrOrphanedChild) && c != nil {
				render.JSON(w, r, respond.Warning{Result: c, Warning: err.Error()})
				return
			}
			respond.Error(log, w, op, err)
			return
		}

		log.Info("progress recomputed", slog.String("level", string(level)), slog.Int64("id", id), slog.Int("steps", len(c.Steps)))

		render.JSON(w, r, c)
	}
}
