package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Simplici0/nactco/internal/catalog"
	"github.com/Simplici0/nactco/internal/config"
	"github.com/Simplici0/nactco/internal/db"
	"github.com/Simplici0/nactco/internal/engine"
	"github.com/Simplici0/nactco/internal/logging"
	"github.com/Simplici0/nactco/internal/metrics"
	"github.com/Simplici0/nactco/internal/migrations"
	"github.com/Simplici0/nactco/internal/seed"
	"github.com/Simplici0/nactco/internal/tco"
)

const shutdownTimeout = 10 * time.Second

func main() {
	bootstrap := bootstrapLogger(zap.NewProduction)

	cfg, err := config.Load(bootstrap)
	if err != nil {
		bootstrap.Fatal("failed to load config", zap.Error(err))
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		bootstrap.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// bootstrapLogger builds the logger used until config is loaded, falling back
// to zap's example logger when build fails.
func bootstrapLogger(build func(...zap.Option) (*zap.Logger, error)) *zap.Logger {
	log, err := build()
	if err != nil || log == nil {
		fmt.Fprintf(os.Stderr, "build bootstrap logger: %v\n", err)
		return zap.NewExample()
	}
	return log
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	database, err := db.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}

	srv, err := newServer(ctx, cfg, log, database)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", httpServer.Addr), zap.Bool("dev", cfg.IsDev()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// newServer seeds the database, loads the active catalog and wires the
// engine, cache and metrics.
func newServer(ctx context.Context, cfg config.Config, log *zap.Logger, database *sql.DB) (*server, error) {
	defaults, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load default catalog: %w", err)
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    cfg.Admin.Email,
		AdminPassword: cfg.Admin.Password,
		Catalog:       defaults,
	})
	if err != nil {
		return nil, fmt.Errorf("seed database: %w", err)
	}
	log.Info("seed complete", zap.Int("inserts", stats.Inserts), zap.Int("skipped", stats.Skipped))

	store := catalog.NewStore(database)
	active, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	eng, err := engine.New(
		engine.WithLogger(log.Named("engine")),
		engine.WithCostParams(tco.CostParams{SupportRate: cfg.Engine.SupportRate}),
		engine.WithRiskParams(tco.RiskParams{ScalingConstant: cfg.Engine.RiskScalingConstant}),
		engine.WithComparator(engine.ComparatorMode(cfg.Engine.Comparator)),
	)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)
	m.CatalogVendors.Set(float64(len(active)))

	return &server{
		log:      log,
		db:       database,
		auth:     newAuthService(database, cfg.Admin.SessionSecret, !cfg.IsDev()),
		engine:   eng,
		store:    store,
		cache:    engine.NewResultCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval),
		metrics:  m,
		registry: registry,
		defaults: cfg.Defaults,
		catalog:  active,
	}, nil
}
