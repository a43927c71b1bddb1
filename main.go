package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ttfs/internal/api"
	"ttfs/internal/config"
	"ttfs/internal/logging"
	"ttfs/internal/middleware"
	"ttfs/internal/parcel"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	path := config.Path()
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		log.Fatal("failed to load config:", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := parcel.New(cfg, logger.Logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer p.Close()

	if _, err := os.Stat(path); err == nil {
		go func() {
			err := config.Watch(ctx, path, logger.Logger, func(next *config.Config) {
				if err := logger.SetLevel(next.LogLevel); err != nil {
					logger.Warn("ignoring log level", zap.Error(err))
					return
				}
				logger.Info("log level changed", zap.String("level", next.LogLevel))
			})
			if err != nil {
				logger.Warn("config watch stopped", zap.Error(err))
			}
		}()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger(logger), middleware.Recover(logger))
	api.NewHandler(p.Store, p.Safe, logger).Routes(r)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server",
		zap.String("address", srv.Addr),
		zap.String("environment", cfg.Environment))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed", zap.Error(err))
	}
}
