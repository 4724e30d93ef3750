package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"tally/internal/catalog"
	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/events"
	apphttp "tally/internal/http"
	"tally/internal/ledger"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStore(logger, cfg.DBPath)
	defer store.Close()

	// The event stream is optional: without AMQP_URL the services run with a
	// nil publisher and skip publishing entirely.
	var publisher ledger.Publisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without change events", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP event stream enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	expenses := ledger.NewService(store.Ledger(core.Expense), publisher)
	credits := ledger.NewService(store.Ledger(core.Credit), publisher)

	srv := apphttp.NewServer(":"+cfg.Port, expenses, credits, catalog.New(cfg.CategoriesPath))

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Schema creation and the write probe succeeded in OpenStore, so the
	// readiness gate can open before the listener starts.
	srv.MarkReady()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting tally server", "port", cfg.Port, "db", cfg.DBPath)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
