// Bank Marketing Predictor - form server
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/bank-marketing/internal/api"
	"github.com/ashureev/bank-marketing/internal/config"
	"github.com/ashureev/bank-marketing/internal/form"
	"github.com/ashureev/bank-marketing/internal/middleware"
	"github.com/ashureev/bank-marketing/internal/predict"
	"github.com/ashureev/bank-marketing/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		slog.Info(fmt.Sprintf(format, args...))
	})); err != nil {
		slog.Warn("Failed to set GOMAXPROCS", "error", err)
	}

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server",
		"port", cfg.Port,
		"dev", cfg.IsDevelopment(),
		"predict_url", cfg.PredictURL,
		"strict_validation", cfg.StrictValidation,
	)

	// Initialize dependencies.
	client, err := predict.NewClient(predict.ClientConfig{
		Endpoint: cfg.PredictURL,
		Timeout:  cfg.PredictTimeout,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize prediction client", "error", err)
		os.Exit(1)
	}

	pages := session.NewManager(func(pageID string) *form.Controller {
		return form.New(client, form.Options{
			ID:     pageID,
			Strict: cfg.StrictValidation,
			Logger: logger,
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter *middleware.RateLimiter
	if cfg.SubmitRateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
		limiter.StartEviction(ctx)
		slog.Info("Submission rate limit enabled", "limit", cfg.SubmitRateLimit, "window", cfg.SubmitRateWindow)
	}

	// Initialize handlers.
	baseHandler := api.NewHandler(pages, cfg, limiter)
	pageHandler := api.NewPageHandler(baseHandler)
	formHandler := api.NewFormHandler(baseHandler)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	pageHandler.RegisterRoutes(r)
	formHandler.RegisterRoutes(r)

	// Websocket streams are long-lived, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	session.StartSweeper(ctx, pages, cfg.PageTTL, cfg.PageSweepInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
