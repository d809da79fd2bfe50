package list

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

type OpenBreakdowns interface {
	OpenForMachine(ctx context.Context, scope service.Scope, machineID int64) ([]*storage.Breakdown, error)
}

// GetOpenBreakdowns handles GET /api/machines/{id}/breakdowns.
func GetOpenBreakdowns(log *slog.Logger, src OpenBreakdowns) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.breakdowns.GetOpenBreakdowns"

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

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		open, err := src.OpenForMachine(ctx, scope, id)
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}

		if open == nil {
			open = []*storage.Breakdown{}
		}

		render.JSON(w, r, open)
	}
}
