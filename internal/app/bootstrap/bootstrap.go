package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	pollledger "pollchain/contexts/governance/poll-ledger"
	"pollchain/contexts/governance/poll-ledger/adapters/memory"
	postgresadapter "pollchain/contexts/governance/poll-ledger/adapters/postgres"
	sqliteadapter "pollchain/contexts/governance/poll-ledger/adapters/sqlite"
	"pollchain/contexts/governance/poll-ledger/ports"
	"pollchain/internal/platform/config"
	"pollchain/internal/platform/db"
	"pollchain/internal/platform/httpserver"
	"pollchain/internal/platform/messaging"
	"pollchain/internal/platform/otel"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server    *httpserver.Server
	module    pollledger.Module
	store     storeHandle
	telemetry func(context.Context) error
	logger    *slog.Logger
}

type WorkerApp struct {
	module        pollledger.Module
	store         storeHandle
	telemetry     func(context.Context) error
	auditInterval time.Duration
	logger        *slog.Logger
}

// storeHandle is an opened record store plus whatever must be closed with it.
type storeHandle struct {
	store ports.RecordStore
	clock ports.Clock
	idGen ports.IDGenerator
	close func() error
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, "api")

	telemetry, err := otel.Setup(ctx, cfg.ServiceName+"-api", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = telemetry(ctx)
		return nil, err
	}

	bus := messaging.NewBus(logger)
	module := pollledger.NewModule(pollledger.Dependencies{
		Store:          store.store,
		Events:         bus,
		Subscriber:     bus,
		Clock:          store.clock,
		IDGen:          store.idGen,
		CommitAttempts: cfg.CommitAttempts,
		Logger:         logger,
	})

	return &APIApp{
		server:    httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort)),
		module:    module,
		store:     store,
		telemetry: telemetry,
		logger:    logger,
	}, nil
}

// BuildWorker wires the tally auditor. The worker reads the same database as
// the API, so the in-memory store is rejected.
func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Store == config.StoreMemory {
		return nil, errors.New("worker needs a shared store: set POLLCHAIN_STORE to postgres or sqlite")
	}
	logger := newLogger(cfg, "worker")

	telemetry, err := otel.Setup(ctx, cfg.ServiceName+"-worker", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = telemetry(ctx)
		return nil, err
	}

	module := pollledger.NewModule(pollledger.Dependencies{
		Store:          store.store,
		Clock:          store.clock,
		IDGen:          store.idGen,
		CommitAttempts: cfg.CommitAttempts,
		Logger:         logger,
	})
	return &WorkerApp{
		module:        module,
		store:         store,
		telemetry:     telemetry,
		auditInterval: cfg.AuditInterval,
		logger:        logger,
	}, nil
}

// Run serves HTTP until ctx is done, then drains the server.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if a.module.Activity != nil {
		if err := a.module.Activity.Start(groupCtx); err != nil {
			return err
		}
	}
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	return closeAll(a.store, a.telemetry)
}

// Run audits every poll on each tick until ctx is done. Mismatches are
// reported by the auditor and never stop the loop.
func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.auditInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"audit_interval", w.auditInterval.String(),
	)

	for {
		if _, err := w.module.Auditor.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	return closeAll(w.store, w.telemetry)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storeHandle, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return storeHandle{}, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(ctx); err != nil {
			_ = pg.Close()
			return storeHandle{}, err
		}
		return storeHandle{
			store: repo,
			clock: postgresadapter.SystemClock{},
			idGen: postgresadapter.UUIDGenerator{},
			close: pg.Close,
		}, nil
	case config.StoreSQLite:
		store, err := sqliteadapter.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return storeHandle{}, err
		}
		return storeHandle{
			store: store,
			clock: postgresadapter.SystemClock{},
			idGen: postgresadapter.UUIDGenerator{},
			close: store.Close,
		}, nil
	default:
		store := memory.NewStore()
		return storeHandle{store: store, clock: store, idGen: store}, nil
	}
}

func closeAll(store storeHandle, telemetry func(context.Context) error) error {
	var errs []error
	if store.close != nil {
		errs = append(errs, store.close())
	}
	if telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, telemetry(ctx))
	}
	return errors.Join(errs...)
}

func newLogger(cfg config.Config, process string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	logger := slog.New(handler).With("service", cfg.ServiceName, "process", process)
	slog.SetDefault(logger)
	return logger
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
