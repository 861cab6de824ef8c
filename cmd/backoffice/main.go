package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"backoffice/internal/amqp"
	"backoffice/internal/backend"
	"backoffice/internal/cache"
	"backoffice/internal/cli"
	"backoffice/internal/format"
	apphttp "backoffice/internal/http"
	"backoffice/internal/log"
	"backoffice/internal/views"
	appweb "backoffice/web"
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
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		return err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err.Error())
		return err
	}

	cf, err := format.NewCurrencyFormatter(cfg.CurrencyCode, cfg.LocaleTag)
	if err != nil {
		logger.Error("Invalid display settings", log.FieldError, err.Error())
		return err
	}
	renderer, err := views.NewRenderer(appweb.TemplatesFS, cf)
	if err != nil {
		logger.Error("Failed to parse templates", log.FieldError, err.Error())
		return err
	}

	figures := cache.NewFigureCache(res.Backend, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	cacheManager.Register(figures)
	if cfg.CacheTTL > 0 {
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	deps := apphttp.Dependencies{
		Figures:            figures,
		Renderer:           renderer,
		Probe:              func(ctx context.Context) error { return backend.Probe(ctx, res.Backend) },
		Logger:             logger,
		BackendName:        cfg.DataBackend,
		CacheTTL:           cfg.CacheTTL,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Pages still work from the cache and backend; refresh only clears the cache.
			logger.Warn("AMQP unavailable, refresh requests will not reach the worker", log.FieldError, err.Error())
		} else {
			deps.Publisher = amqpClient
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, deps)
	if err != nil {
		logger.Error("Failed to build server", log.FieldError, err.Error())
		return err
	}

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeSynced(ctx, srv.HandleSynced); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Stopped listening for sync completions", log.FieldError, err.Error())
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting backoffice server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldCurrency, cf.Currency(),
			log.FieldLocale, cf.Locale())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			return err
		}
	}

	steps := []cli.ShutdownStep{
		{Name: "http", Fn: srv.Shutdown},
		{Name: "cache", Fn: func(context.Context) error { cacheManager.Stop(); return nil }},
	}
	if amqpClient != nil {
		steps = append(steps, cli.ShutdownStep{Name: "amqp", Fn: func(context.Context) error { return amqpClient.Close() }})
	}
	if res.Cleanup != nil {
		steps = append(steps, cli.ShutdownStep{Name: "backend", Fn: func(context.Context) error { return res.Cleanup() }})
	}
	if err := cli.GracefulShutdown(logger, 30*time.Second, steps...); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
