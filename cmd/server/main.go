package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/carshare-console/internal/clock"
	"github.com/iliyamo/carshare-console/internal/config"
	"github.com/iliyamo/carshare-console/internal/database"
	"github.com/iliyamo/carshare-console/internal/handler"
	"github.com/iliyamo/carshare-console/internal/logger"
	"github.com/iliyamo/carshare-console/internal/middleware"
	"github.com/iliyamo/carshare-console/internal/queue"
	"github.com/iliyamo/carshare-console/internal/repository"
	"github.com/iliyamo/carshare-console/internal/router"
	"github.com/iliyamo/carshare-console/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.Env)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.ILogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbSettings := cfg.DatabaseSettings()
	if cfg.MigrationsOnRun {
		m, err := database.NewMigrator(dbSettings, log)
		if err != nil {
			return err
		}
		err = m.Up()
		_ = m.Close()
		if err != nil {
			return err
		}
	}

	db, err := database.Open(dbSettings)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("mysql connected", logger.String("host", cfg.DBHost), logger.Int("pool_size", cfg.DBPoolSize))

	repo := repository.NewCarSharingRepo(database.NewProvider(db), log)
	clk := clock.NewSystem()

	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		events = service.NewAMQPPublisher(cfg.AMQPURL, log)
		if cfg.AuditConsumer {
			consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.AuditLogDir, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit consumer stopped", logger.Error(err))
				}
			}()
		}
	} else {
		log.Info("RABBITMQ_URL not set, audit events disabled")
	}

	rdb := config.NewRedisClient()
	var proofs handler.ProofKeeper
	if rdb != nil {
		defer rdb.Close()
		proofs = service.NewProofStore(service.NewRedisProofBackend(rdb), cfg.ProofSecret, cfg.ProofTTL)
	} else {
		log.Warning("redis unavailable: proofs render inline, cache and rate limit disabled")
	}

	tx := service.NewTransactionsService(repo, events, clk, log)

	renderer, err := handler.NewTemplateRenderer(cfg.TemplateGlob)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, router.Routes{
		Console: &handler.ConsoleHandler{
			Tx:              tx,
			Dashboard:       service.NewDashboardService(repo, log),
			Proofs:          proofs,
			Clock:           clk,
			Log:             log,
			DefaultZoneType: cfg.DefaultZoneType,
		},
		API: &handler.APIHandler{
			Tx:              tx,
			ZoneTypes:       repo,
			Clock:           clk,
			Log:             log,
			DefaultZoneType: cfg.DefaultZoneType,
		},
		Ready:     repo,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", addr), logger.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
