package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/agentmarket/internal/adapter/driven/eventlog"
	redisadapter "github.com/ericfisherdev/agentmarket/internal/adapter/driven/redis"
	"github.com/ericfisherdev/agentmarket/internal/adapter/driven/signature"
	sqliteadapter "github.com/ericfisherdev/agentmarket/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/agentmarket/internal/adapter/driving/http"
	"github.com/ericfisherdev/agentmarket/internal/application"
	"github.com/ericfisherdev/agentmarket/internal/config"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"redis", cfg.HasRedis(),
		"event_stream", cfg.EventStream,
		"signature_max_skew", cfg.SignatureMaxSkew,
		"airdrop_enabled", cfg.AirdropEnabled,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", db.Path())

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	logger.Info("migrations complete")

	// 5. Wire adapters.
	store := sqliteadapter.NewStore(db)
	serviceStore := sqliteadapter.NewServiceRepo(db)
	accessKeyStore := sqliteadapter.NewAccessKeyRepo(db)
	ledgerStore := sqliteadapter.NewLedgerRepo(db)
	invocationStore := sqliteadapter.NewInvocationRepo(db)
	settlementStore := sqliteadapter.NewSettlementRepo(db)
	verifier := signature.NewVerifier(cfg.SignatureMaxSkew)

	// 6. Choose the event publisher: Redis Streams when configured, the log otherwise.
	var publisher driven.EventPublisher = eventlog.NewPublisher(logger)
	if cfg.HasRedis() {
		redisPublisher, err := redisadapter.NewPublisher(ctx, cfg.RedisURL, cfg.EventStream)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := redisPublisher.Close(); closeErr != nil {
				logger.Error("error closing redis", "error", closeErr)
			}
		}()
		publisher = redisPublisher
		logger.Info("publishing events to redis", "stream", redisPublisher.Stream())
	} else {
		logger.Info("no redis configured, events go to the log")
	}

	// 7. Create application services.
	registrySvc := application.NewRegistryService(store, serviceStore)
	invocationSvc := application.NewInvocationService(store, invocationStore)
	accessSvc := application.NewAccessService(store, accessKeyStore, publisher)
	accountSvc := application.NewAccountService(store, ledgerStore, settlementStore)

	// 8. Create HTTP handler.
	apiHandler := httphandler.NewHandler(registrySvc, invocationSvc, accessSvc, accountSvc, verifier, cfg.AirdropEnabled, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
