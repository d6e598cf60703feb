/**
 * @description
 * Entry point for the affiliate payout service. Wires the Postgres pool,
 * Stripe client, RabbitMQ publisher, HTTP server and the weekly settlement
 * cron, then runs until a termination signal arrives.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/emviapp/affiliate-payout-service/internal/api"
	"github.com/emviapp/affiliate-payout-service/internal/app"
	"github.com/emviapp/affiliate-payout-service/internal/config"
	"github.com/emviapp/affiliate-payout-service/internal/store"
	emvirabbit "github.com/emviapp/affiliate-payout-service/pkg/rabbitmq"
	"github.com/emviapp/affiliate-payout-service/pkg/stripeclient"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	pgConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	pgConfig.MaxConns = 20
	pgConfig.MinConns = 2
	pgConfig.MaxConnLifetime = 30 * time.Minute
	pgConfig.MaxConnIdleTime = 5 * time.Minute
	pgConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	repository := store.NewRepository(dbpool)
	stripe := stripeclient.NewClient(cfg.StripeAPIBaseURL, cfg.StripeSecretKey)

	var publisher app.EventPublisher = &emvirabbit.EventProducerFallback{}
	if cfg.RabbitMQURL != "" {
		if producer, err := emvirabbit.NewEventProducer(cfg.RabbitMQURL, app.EventsExchange); err == nil {
			publisher = producer
			defer producer.Close()
		} else {
			logger.Warn("failed to connect to RabbitMQ, using fallback publisher", "error", err)
		}
	}

	service := app.NewService(
		repository,
		stripe,
		publisher,
		cfg.MinPayoutThreshold,
		cfg.PayoutCurrency,
		time.Duration(cfg.TransferDelayMS)*time.Millisecond,
	)

	jobs := app.NewJobs(service, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.PayoutJobSchedule)
	scheduler.Start()
	logger.Info("settlement scheduler started")

	handler := api.NewHandler(service)
	router := api.NewRouter(handler, cfg.SupabaseJWKSURL, cfg.InternalAPIKey)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
