package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"shopfloor/http-server/respond"
	gettimeline "shopfloor/http-server/timeline/get"
	"shopfloor/internal/middleware/auth"
	"shopfloor/internal/service"
)

type GenerateExcelHandler interface {
	GenerateExcel(ctx context.Context, scope service.Scope, orderIDs []int64) ([]byte, error)
}

// GenerateTimelineExcel handles GET /api/timeline/excel, те же параметры, что у /api/timeline.
func GenerateTimelineExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.timeline.GenerateTimelineExcel"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		scope, ok := auth.ScopeFrom(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		orderIDs, err := gettimeline.ParseOrderIDs(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second) // на Excel побольше времени
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, scope, orderIDs)
		if err != nil {
			respond.Error(log, w, op, err)
			return
		}

		fileName := fmt.Sprintf("Timeline_%s.xlsx", time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(excelBytes); err != nil {
			log.Error("failed to write excel", slog.String("error", err.Error()))
		}
	}
}
