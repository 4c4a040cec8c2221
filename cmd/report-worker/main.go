package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"giaingan/internal/amqp"
	"giaingan/internal/backend"
	"giaingan/internal/config"
	"giaingan/internal/core"
	applog "giaingan/internal/log"
	"giaingan/internal/services"
	"giaingan/internal/sheets"
	gsheet "giaingan/internal/sheets/google"
	memsheet "giaingan/internal/sheets/memory"
	"giaingan/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting report-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The worker reads the same document store the API writes.
	store, err := backend.NewStore(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()
	if cfg.DataBackend != "sqlite" {
		logger.Warn("Memory backend holds no API data; reports will be empty")
	}

	// Report sink: Google Sheets in production, in-memory for local runs.
	var writer sheets.ReportWriter
	switch cfg.ReportSink {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = cli
		logger.Info("Google Sheets report sink initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		writer = memsheet.New()
		logger.Info("In-memory report sink initialized")
	}

	disbursements := services.NewDisbursementService(store, core.UUIDGenerator{}, nil)
	reportWorker := worker.NewReportWorker(disbursements, writer)

	// Unlike the API, the worker has nothing to do without a broker.
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rebuild everything once on startup to cover events missed while down.
	startupCtx, startupCancel := context.WithTimeout(ctx, cfg.RebuildTimeout)
	if err := reportWorker.StartupRebuild(startupCtx); err != nil {
		logger.Error("Startup rebuild failed", "error", err)
		// Don't exit - continue with normal operation
	}
	startupCancel()

	go func() {
		handler := func(msg *amqp.RecordChangeMessage) error {
			return reportWorker.HandleChangeMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeRecordChanges(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
