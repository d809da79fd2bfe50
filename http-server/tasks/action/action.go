package action

import (
	"context"
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
	"shopfloor/internal/storage"
)

type TaskActioner interface {
	Apply(ctx context.Context, scope service.Scope, taskID int64, action string) (*storage.Task, error)
}

// TaskAction handles POST /api/tasks/{id}/{action}: clock_in, clock_out, pause.
func TaskAction(log *slog.Logger, tasks TaskActioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.tasks.TaskAction"

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
		action := chi.URLParam(r, "action")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		task, err := tasks.Apply(ctx, scope, id, action)
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}

		log.Info("task action applied", slog.Int64("task_id", id), slog.String("action", action))

		render.JSON(w, r, task)
	}
}
