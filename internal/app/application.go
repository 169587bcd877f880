package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/raysh454/phishguard/internal/logging"
)

// Application is the background context runtime: it owns the components,
// the cache sweeper and the HTTP server.
type Application struct {
	Config *Config
	Logger logging.Logger
	Comps  *Components

	// dbPath overrides the store location; tests use ":memory:".
	dbPath string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	httpSrv *http.Server
	addr    net.Addr
}

// NewApplication constructs an Application; nothing runs until Start.
func NewApplication(cfg *Config, logger logging.Logger) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("phishguard")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		Config: cfg,
		Logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// WithDatabase overrides the sqlite path.
func (a *Application) WithDatabase(path string) *Application {
	a.dbPath = path
	return a
}

// Start wires the components, starts the cache sweeper and begins serving.
// An unreachable backend is logged and does not stop startup.
func (a *Application) Start(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	comps, err := NewComponents(a.Config, a.Logger, a.dbPath)
	if err != nil {
		return err
	}
	a.Comps = comps

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := comps.Gateway.Health(healthCtx); err != nil {
		a.Logger.Warn("analysis backend not reachable", logging.Field{Key: "base_url", Value: a.Config.Gateway.BaseURL}, logging.Err(err))
	}
	cancel()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		comps.Cache.Run(a.ctx)
	}()

	a.httpSrv = comps.Server.HTTPServer()
	ln, err := net.Listen("tcp", a.httpSrv.Addr)
	if err != nil {
		a.cancel()
		a.wg.Wait()
		_ = comps.Close()
		return fmt.Errorf("listen %s: %w", a.httpSrv.Addr, err)
	}
	a.addr = ln.Addr()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("http server stopped", logging.Err(err))
		}
	}()

	a.Logger.Info("background service started", logging.Field{Key: "addr", Value: a.addr.String()})
	return nil
}

// Addr is the bound listen address after Start.
func (a *Application) Addr() string {
	if a.addr == nil {
		return ""
	}
	return a.addr.String()
}

// Shutdown stops the server, drains open bridge connections, stops the
// sweeper and closes the store.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs []error
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.Comps != nil && a.Comps.Bridge != nil {
		if err := a.Comps.Bridge.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("bridge shutdown: %w", err))
		}
	}
	a.cancel()
	a.wg.Wait()

	if a.Comps != nil {
		if err := a.Comps.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing components: %w", err))
		}
	}
	return errors.Join(errs...)
}
