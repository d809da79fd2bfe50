package get

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/service"
	"shopfloor/internal/service/timeline"
)

type TimelineGetter interface {
	Timeline(ctx context.Context, scope service.Scope, orderIDs []int64) ([]timeline.Entry, error)
}

// GetTimeline handles GET /api/timeline?order_id=1&order_id=2 (или order_id=1,2).
// Без order_id отдаются все незакрытые заказы арендатора.
func GetTimeline(log *slog.Logger, src TimelineGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.timeline.GetTimeline"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scope, ok := auth.ScopeFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		orderIDs, err := ParseOrderIDs(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		entries, err := src.Timeline(ctx, scope, orderIDs)
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}

		log.Debug("timeline built", slog.Int("entries", len(entries)))

		render.JSON(w, r, entries)
	}
}

func ParseOrderIDs(r *http.Request) ([]int64, error) {
	var ids []int64

	for _, raw := range r.URL.Query()["order_id"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid order_id %q", part)
			}
			ids = append(ids, id)
		}
	}

	return ids, nil
}
