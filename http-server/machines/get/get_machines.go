package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/service"
	"shopfloor/internal/storage"
)

type Machines interface {
	Machines(ctx context.Context, scope service.Scope) ([]*storage.Machine, error)
}

// GetMachines handles GET /api/machines: станки цеха и их статус (IDLE/BUSY/DOWN).
func GetMachines(log *slog.Logger, src Machines) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.machines.GetMachines"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scope, ok := auth.ScopeFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		machines, err := src.Machines(ctx, scope)
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}

		render.JSON(w, r, machines)
	}
}
