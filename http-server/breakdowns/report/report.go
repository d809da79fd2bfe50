package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/service"
	"shopfloor/internal/service/breakdown"
	"shopfloor/internal/storage"
)

type BreakdownReporter interface {
	Report(ctx context.Context, scope service.Scope, in breakdown.ReportInput) (*storage.Breakdown, error)
}

// ReportBreakdown handles POST /api/breakdowns.
func ReportBreakdown(log *slog.Logger, reporter BreakdownReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.breakdowns.ReportBreakdown"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scope, ok := auth.ScopeFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var req breakdown.ReportInput
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Некорректный JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		b, err := reporter.Report(ctx, scope, req)
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, b)
	}
}
