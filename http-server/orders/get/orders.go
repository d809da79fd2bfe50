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
	"shopfloor/internal/service/timeline"
	"shopfloor/internal/storage"
)

type OrderSnapshots interface {
	Snapshot(ctx context.Context, scope service.Scope, orderIDs []int64) ([]timeline.OrderTree, error)
}

type ResponseOrders struct {
	Orders []*storage.Order `json:"orders"`
}

// GetOrders handles GET /api/orders: незакрытые заказы арендатора с текущим прогрессом.
func GetOrders(log *slog.Logger, src OrderSnapshots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.orders.GetOrders"

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

		trees, err := src.Snapshot(ctx, scope, nil)
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}

		orders := make([]*storage.Order, 0, len(trees))
		for _, t := range trees {
			orders = append(orders, t.Order)
		}

		render.JSON(w, r, ResponseOrders{Orders: orders})
	}
}
