package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"shopfloor/http-server/admin/recompute"
	"shopfloor/http-server/breakdowns/list"
	"shopfloor/http-server/breakdowns/report"
	"shopfloor/http-server/breakdowns/resolve"
	generate_excel "shopfloor/http-server/generate-report/generate-excel"
	getmachines "shopfloor/http-server/machines/get"
	getorders "shopfloor/http-server/orders/get"
	"shopfloor/http-server/tasks/action"
	taskprogress "shopfloor/http-server/tasks/progress"
	gettimeline "shopfloor/http-server/timeline/get"
	"shopfloor/internal/app"
	"shopfloor/internal/config"
	"shopfloor/internal/middleware/auth"
)

func routes(cfg config.Config, log *slog.Logger, a *app.App) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.HeaderTenant, auth.HeaderUser},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api", func(api chi.Router) {
		api.Use(auth.Scope)

		// Учёт времени по задачам
		api.Post("/tasks/{id}/{action}", action.TaskAction(log, a.Tasks))
		api.Put("/tasks/{id}/progress", taskprogress.SetTaskProgress(log, a.Tasks))

		// Поломки станков
		api.Post("/breakdowns", report.ReportBreakdown(log, a.Breakdowns))
		api.Post("/breakdowns/{id}/resolve", resolve.ResolveBreakdown(log, a.Breakdowns))
		api.Get("/machines", getmachines.GetMachines(log, a.Breakdowns))
		api.Get("/machines/{id}/breakdowns", list.GetOpenBreakdowns(log, a.Breakdowns))

		// Заказы
		api.Get("/orders", getorders.GetOrders(log, a.Timeline))
		api.Get("/orders/{id}", getorders.GetOrderDetails(log, a.Timeline))

		// Гант
		api.Get("/timeline", gettimeline.GetTimeline(log, a.Timeline))
		api.Get("/timeline/excel", generate_excel.GenerateTimelineExcel(log, a.Excel))

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))
			admin.Post("/recompute/{level}/{id}", recompute.RecomputeProgress(log, a.Progress))
		})
	})

	return router
}
