// Package app wires configuration, storage, and services into a runnable
// application facade.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/access"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/audit"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/record"
	"github.com/lcsavb/autocusto-sub000/internal/adapter/postgres/version"
	"github.com/lcsavb/autocusto-sub000/internal/config"
	"github.com/lcsavb/autocusto-sub000/internal/observability"
	"github.com/lcsavb/autocusto-sub000/internal/service/registry"
	"github.com/lcsavb/autocusto-sub000/internal/service/resolver"
	"github.com/lcsavb/autocusto-sub000/internal/service/search"
	"github.com/lcsavb/autocusto-sub000/internal/service/writer"
)

// App holds the assembled application: the connection pool, metrics, and the
// four versioning services. Embedding callers (CLIs, servers, tests) construct
// one App and use the services directly.
type App struct {
	Log     *slog.Logger
	Pool    *pgxpool.Pool
	Metrics *observability.Metrics

	Registry *registry.Service
	Resolver *resolver.Service
	Writer   *writer.Service
	Search   *search.Service
}

// New connects to the database and wires every service. The returned App owns
// the pool; call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metrics := observability.NewMetrics(reg)

	txManager := postgres.NewTxManager(pool)
	recordRepo := record.New(pool)
	versionRepo := version.New(pool)
	accessRepo := access.New(pool)
	auditRepo := audit.New(pool)

	return &App{
		Log:     logger,
		Pool:    pool,
		Metrics: metrics,

		Registry: registry.NewService(logger, accessRepo, recordRepo, versionRepo, txManager),
		Resolver: resolver.NewService(logger, accessRepo, recordRepo, versionRepo, auditRepo, metrics, cfg.Versioning),
		Writer:   writer.NewService(logger, recordRepo, versionRepo, accessRepo, auditRepo, txManager, metrics, cfg.Versioning),
		Search:   search.NewService(logger, accessRepo, versionRepo, metrics, cfg.Versioning),
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	a.Pool.Close()
}

// Run loads configuration, builds the App, and blocks until the context is
// cancelled. It exists so cmd binaries share one startup path.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	a, err := New(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
