package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"backoffice/internal/amqp"
	"backoffice/internal/cli"
	"backoffice/internal/log"
	gsheet "backoffice/internal/sheets/google"
	"backoffice/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Error("Failed to load .env", log.FieldError, err.Error())
		os.Exit(1)
	}
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error())
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting backoffice-worker", "sync_interval", cfg.SyncInterval.String())

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if cfg.GoogleSpreadsheetID == "" {
		err := errors.New("GOOGLE_SPREADSHEET_ID is required by the worker")
		logger.Error("Missing figure source", log.FieldError, err.Error())
		return err
	}
	source, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.FiguresSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		return err
	}

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err.Error())
		return err
	}

	syncWorker := worker.NewSyncWorker(source, repo, logger.Slog())

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			_ = repo.Close()
			return err
		}
		syncWorker.SetNotifier(amqpClient)
	} else {
		logger.Info("AMQP disabled, running periodic sync only")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncWorker.Run(gctx, cfg.SyncInterval)
	})
	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeRefresh(gctx, syncWorker.HandleRefresh)
		})
	}

	runErr := g.Wait()
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, runErr.Error())
	}

	steps := []cli.ShutdownStep{}
	if amqpClient != nil {
		steps = append(steps, cli.ShutdownStep{Name: "amqp", Fn: func(context.Context) error { return amqpClient.Close() }})
	}
	steps = append(steps, cli.ShutdownStep{Name: "sqlite", Fn: func(context.Context) error { return repo.Close() }})
	if err := cli.GracefulShutdown(logger, 10*time.Second, steps...); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logger.Info("Worker stopped gracefully", "last_sync", syncWorker.LastSync())
	return nil
}
