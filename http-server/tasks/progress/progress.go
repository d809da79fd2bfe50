package progress

import (
	"context"
	"encoding/json"
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
	"shopfloor/internal/service/tasks"
)

type ProgressSetter interface {
	SetTaskProgress(ctx context.Context, scope service.Scope, taskID int64, percent int) (*tasks.ProgressResult, error)
}

type Request struct {
	ProgressPercent *int `json:"progress_percent"`
}

// SetTaskProgress handles PUT /api/tasks/{id}/progress.
// Если цепочка оборвана, задача всё равно сохранена: 200 и warning.
func SetTaskProgress(log *slog.Logger, setter ProgressSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.SetTaskProgress"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scope, ok := auth.ScopeFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid ID", http.StatusBadRequest)
			return
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}
		if req.ProgressPercent == nil {
			http.Error(w, "progress_percent is required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := setter.SetTaskProgress(ctx, scope, id, *req.ProgressPercent)
		if err != nil {
			if errors.Is(err, service.ErrOrphanedChild) && res != nil {
				log.Warn("progress saved, cascade incomplete", slog.Int64("task_id", id), slog.String("error", err.Error()))
				render.JSON(w, r, respond.Warning{Result: res, Warning: err.Error()})
				return
			}
			respond.Error(log, w, op, err)
			return
		}

		render.JSON(w, r, res)
	}
}
