package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arhebs/payout-service/internal/adapter/handler"
	"github.com/arhebs/payout-service/internal/adapter/storage"
	"github.com/arhebs/payout-service/internal/core/config"
	"github.com/arhebs/payout-service/internal/core/gateway"
	"github.com/arhebs/payout-service/internal/core/payout"
	"github.com/arhebs/payout-service/internal/core/worker"
)

func main() {
	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dbPool, err := storage.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := storage.Migrate(dbPool, "migrations"); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	payoutRepo := storage.NewPayoutRepository(dbPool)
	jobQueue := storage.NewJobQueue(dbPool)
	payoutService := payout.NewService(payoutRepo, jobQueue)

	provider := gateway.NewClient(cfg.ProviderURL)
	processor := worker.NewProcessor(payoutRepo, provider.Send)
	failureHandler := worker.NewFailureHandler(payoutRepo)

	dispatcher := worker.NewDispatcher(jobQueue, processor, failureHandler, worker.Config{
		Workers:         cfg.WorkerCount,
		PollInterval:    cfg.PollInterval,
		MaxAttempts:     cfg.MaxAttempts,
		BackoffBase:     cfg.RetryBackoffBase,
		BackoffMax:      cfg.RetryBackoffMax,
		StuckJobTimeout: cfg.StuckJobTimeout,
	})

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher.Start(dispatcherCtx)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	payoutHandler := &handler.PayoutHandler{Service: payoutService}
	payoutHandler.RegisterRoutes(app.Group("/api"))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := dbPool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}

		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Metrics stay on their own listener so the API surface remains clean.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			slog.Error("metrics listener stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 server starting", "env", cfg.Env, "port", cfg.Port)

		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()

	<-stop
	slog.Info("🛑 shutting down...")

	// Stop pulling new jobs and let in-flight attempts finish.
	stopDispatcher()
	dispatcher.Wait()

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	dbPool.Close()
	slog.Info("👋 server exited")
}
