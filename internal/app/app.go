// Package app wires the monitor together. An App owns every long-lived
// component; nothing is kept in package globals.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/apimonitor/internal/config"
	"github.com/hamed0406/apimonitor/internal/domain"
	"github.com/hamed0406/apimonitor/internal/httpapi"
	"github.com/hamed0406/apimonitor/internal/probe"
	"github.com/hamed0406/apimonitor/internal/query"
	"github.com/hamed0406/apimonitor/internal/recorder"
	"github.com/hamed0406/apimonitor/internal/repo"
	"github.com/hamed0406/apimonitor/internal/repo/postgres"
	"github.com/hamed0406/apimonitor/internal/repo/sqlite"
	"github.com/hamed0406/apimonitor/internal/scheduler"
)

const shutdownGrace = 10 * time.Second

type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Targets   []domain.Target
	Store     repo.ObservationStore
	Prober    probe.Prober
	Recorder  *recorder.Recorder
	Scheduler *scheduler.Scheduler
	Query     *query.Service
	HTTP      *http.Server

	addr *atomic.String
}

type Option func(*App)

// WithStore replaces the store OpenStore would pick.
func WithStore(s repo.ObservationStore) Option {
	return func(a *App) { a.Store = s }
}

func WithProber(p probe.Prober) Option {
	return func(a *App) { a.Prober = p }
}

// New builds the application and initializes its store. A store that
// cannot be initialized is returned as an error wrapping repo.ErrInit and
// the process should not start.
func New(ctx context.Context, cfg config.Config, targets []domain.Target, logger *zap.Logger, opts ...Option) (*App, error) {
	if err := config.ValidateTargets(targets); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, Targets: targets, addr: atomic.NewString("")}
	for _, opt := range opts {
		opt(a)
	}

	if a.Store == nil {
		s, err := OpenStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.Store = s
	}
	if err := a.Store.Init(ctx); err != nil {
		_ = a.Store.Close()
		return nil, err
	}
	if a.Prober == nil {
		a.Prober = probe.NewHTTPProber()
	}

	a.Recorder = recorder.New(logger, a.Store)
	mon := &scheduler.Monitor{
		Logger:    logger,
		Prober:    a.Prober,
		Recorder:  a.Recorder,
		Diagnoser: probe.NewDiagnoser(cfg.DNSServer),
	}
	a.Scheduler = scheduler.New(logger, mon)
	a.Scheduler.Immediate = cfg.ProbeOnStart
	for _, t := range targets {
		if err := a.Scheduler.Register(t); err != nil {
			_ = a.Store.Close()
			return nil, fmt.Errorf("register %q: %w", t.Name, err)
		}
	}

	a.Query = query.New(logger, a.Store)
	api := httpapi.NewServer(logger, a.Query, a.Scheduler.Targets())
	a.HTTP = &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			ReqPerMin:      cfg.QueryRPM,
			Burst:          cfg.QueryBurst,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

// OpenStore picks Postgres when a database URL is configured and the
// SQLite file otherwise. The store is not initialized yet.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.ObservationStore, error) {
	if cfg.DatabaseURL != "" {
		logger.Info("store_selected", zap.String("driver", "postgres"))
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	logger.Info("store_selected", zap.String("driver", "sqlite"), zap.String("path", cfg.SQLitePath))
	s, err := sqlite.Open(cfg.SQLitePath, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves the read API and runs the scheduler until ctx is done or
// either of them fails, then shuts both down. Shutdown first closes the
// recorder, so no observation is written once it has begun.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.HTTP.Addr, err)
	}
	a.addr.Store(ln.Addr().String())
	a.Logger.Info("api_listen", zap.String("addr", ln.Addr().String()))

	// The scheduler gets its own context so writes can be shut off before
	// probes are cancelled.
	schedCtx, stopScheduler := context.WithCancel(context.WithoutCancel(ctx))
	defer stopScheduler()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Scheduler.Run(schedCtx)
	})
	g.Go(func() error {
		if err := a.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Recorder.Close()
		stopScheduler()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		return a.HTTP.Shutdown(sctx)
	})

	err = g.Wait()
	a.Logger.Info("app_stopped", zap.Error(err))
	return err
}

// Addr is the bound listen address once Run has started, "" before.
func (a *App) Addr() string { return a.addr.Load() }

// Close releases the store and idle probe connections.
func (a *App) Close() error {
	var err error
	if c, ok := a.Prober.(interface{ CloseIdle() }); ok {
		c.CloseIdle()
	}
	if a.Store != nil {
		err = multierr.Append(err, a.Store.Close())
	}
	if a.HTTP != nil {
		err = multierr.Append(err, a.HTTP.Close())
	}
	return err
}
