package main

import (
	"log/slog"
	"net/http"
	"os"

	"shopfloor/internal/app"
	"shopfloor/internal/config"
	"shopfloor/internal/logger"
)

func main() {
	cfg := config.MustConfig()

	log := logger.Setup(cfg.Env)

	a, err := app.New(*cfg, log)
	if err != nil {
		log.Error("failed to init storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	log.Info("server started",
		slog.String("address", cfg.Address),
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.StorageDriver),
	)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, a),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("failed start server", slog.String("error", err.Error()))
	}

	log.Error("server stopped")
}
