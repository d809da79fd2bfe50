package get

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
)

// GetOrderDetails handles GET /api/orders/{id}: заказ со всеми MO, нарядами и задачами.
// Закрытые и чужие заказы отдаются как 404.
func GetOrderDetails(log *slog.Logger, src OrderSnapshots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.GetOrderDetails"

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
			http.Error(w, "Invalid order id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		trees, err := src.Snapshot(ctx, scope, []int64{id})
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}
		if len(trees) == 0 {
			log.Warn("order not found", slog.Int64("order_id", id))
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}

		render.JSON(w, r, trees[0])
	}
}
