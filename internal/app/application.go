// Package app wires the vault's dependencies and manages their lifecycle.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/R3E-Network/time_vault/internal/app/cache"
	"github.com/R3E-Network/time_vault/internal/app/httpapi"
	tlsvc "github.com/R3E-Network/time_vault/internal/app/services/timelock"
	"github.com/R3E-Network/time_vault/internal/app/storage"
	"github.com/R3E-Network/time_vault/internal/app/storage/memory"
	"github.com/R3E-Network/time_vault/internal/app/storage/postgres"
	"github.com/R3E-Network/time_vault/internal/app/system"
	"github.com/R3E-Network/time_vault/internal/chain"
	"github.com/R3E-Network/time_vault/internal/config"
	"github.com/R3E-Network/time_vault/pkg/logger"
)

// Application wires core dependencies and manages the server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	service    *tlsvc.Service
	manager    *system.Manager
	httpServer *http.Server
	db         *sql.DB
}

// New constructs the application from configuration.
func New(cfg *config.Config) (*Application, error) {
	log := logger.New(cfg.Logging)

	client, err := chain.NewClient(chain.Config{
		RPCURL:    cfg.Chain.RPCURL,
		NetworkID: cfg.Chain.NetworkID,
	})
	if err != nil {
		return nil, fmt.Errorf("configure chain client: %w", err)
	}

	vaultAcct, err := chain.AccountFromWIF(cfg.Chain.VaultWIF)
	if err != nil {
		return nil, fmt.Errorf("load vault account: %w", err)
	}
	controllerAcct, err := chain.AccountFromWIF(cfg.Chain.ControllerWIF)
	if err != nil {
		return nil, fmt.Errorf("load controller account: %w", err)
	}

	// The adapter signs pulls with the boot-time controller account. Moving
	// control via the guard changes authorization and the push recipient
	// only; the new controller funds locks by depositing to the vault
	// address directly.
	adapter := chain.NewNEP17Adapter(client, vaultAcct, controllerAcct)

	guard, err := tlsvc.NewGuard(controllerAcct.Address)
	if err != nil {
		return nil, fmt.Errorf("configure guard: %w", err)
	}

	locks, events, db, err := buildStores(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	var balances cache.BalanceCache = cache.Noop{}
	if cfg.Cache.Enabled {
		balances = cache.NewRedis(cfg.Cache.Address, cfg.Cache.TTL)
	}

	service := tlsvc.New(guard, locks, events, adapter, balances, log.WithField("component", "timelock"))

	manager := system.NewManager()
	watcher := tlsvc.NewWatcher(service, log.WithField("component", "watcher"))
	if cfg.Watcher.Interval > 0 {
		watcher = watcher.WithInterval(cfg.Watcher.Interval)
	}
	if err := manager.Register(watcher); err != nil {
		return nil, err
	}
	if cfg.Sweep.Enabled {
		sweeper := tlsvc.NewSweeper(service, cfg.Sweep.Schedule, log.WithField("component", "sweeper"))
		if err := manager.Register(sweeper); err != nil {
			return nil, err
		}
	}

	router := httpapi.NewRouter(service, httpapi.RouterConfig{
		AuthSecret:        []byte(cfg.Auth.JWTSecret),
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		AuditFile:         cfg.Audit.File,
		AuditMax:          cfg.Audit.Max,
	}, log.WithField("component", "httpapi"))

	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		service:    service,
		manager:    manager,
		httpServer: httpServer,
		db:         db,
	}, nil
}

// Service exposes the timelock service, mainly for tests and tooling.
func (a *Application) Service() *tlsvc.Service { return a.service }

// Run starts the background services and the HTTP server, blocking until
// the context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.cfg.Server.ListenAddr())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the HTTP server and background services.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error shutting down HTTP server")
	}

	if err := a.manager.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping services")
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

func buildStores(cfg config.StoreConfig) (storage.LockStore, storage.EventStore, *sql.DB, error) {
	switch cfg.Backend {
	case "", "memory":
		store := memory.New()
		return store, store, nil, nil
	case "postgres":
		db, err := openDatabase(cfg.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return postgres.New(db), postgres.NewEventJournal(db), db, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func openDatabase(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
