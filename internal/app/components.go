package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/raysh454/phishguard/internal/activity"
	"github.com/raysh454/phishguard/internal/background"
	"github.com/raysh454/phishguard/internal/bridge"
	"github.com/raysh454/phishguard/internal/cache"
	"github.com/raysh454/phishguard/internal/gateway"
	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/presenter"
	"github.com/raysh454/phishguard/internal/server"
	"github.com/raysh454/phishguard/internal/store"
)

// Components is the wired background context.
type Components struct {
	Store      *store.SQLiteStore
	Cache      *cache.Cache
	Gateway    *gateway.Client
	Activity   *activity.Logger
	Badge      *presenter.BadgeState
	Presenter  *presenter.Presenter
	Service    *background.Service
	Dispatcher *bridge.Dispatcher
	Bridge     *bridge.Handler
	Server     *server.Server
}

// NewComponents builds the background context from cfg. The sqlite store
// lives under cfg.DataDir unless dbPath overrides it.
func NewComponents(cfg *Config, logger logging.Logger, dbPath string) (*Components, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	if dbPath == "" {
		p, err := cfg.DatabasePath()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		dbPath = p
	}
	st, err := store.OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	gw, err := gateway.NewClient(cfg.Gateway, logger, nil)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("new gateway client: %w", err)
	}

	c := cache.New(cfg.Cache, nil, logger)
	act := activity.New(st, gw, logger)
	badge := &presenter.BadgeState{}
	pres := presenter.New(badge, newNotifier(cfg.Notify, logger), logger)
	svc := background.NewService(c, gw, pres, act, logger)

	d := bridge.NewDispatcher(logger)
	svc.RegisterHandlers(d)
	bh := bridge.NewHandler(d, logger)

	srvCfg := cfg.Server
	srvCfg.Logger = logger.With(logging.Field{Key: "component", Value: "server"})
	srv := server.NewServer(srvCfg, server.Deps{
		Stats:     svc,
		Activity:  act,
		History:   gw,
		Badge:     badge,
		Bridge:    bh,
		CacheSize: c.Len,
	})

	return &Components{
		Store:      st,
		Cache:      c,
		Gateway:    gw,
		Activity:   act,
		Badge:      badge,
		Presenter:  pres,
		Service:    svc,
		Dispatcher: d,
		Bridge:     bh,
		Server:     srv,
	}, nil
}

func newNotifier(cfg NotifyConfig, logger logging.Logger) presenter.Notifier {
	alerts := logger.With(logging.Field{Key: "component", Value: "alerts"})
	multi := presenter.MultiNotifier{presenter.LogNotifier{Logger: alerts}}
	if cfg.Desktop {
		d := presenter.DesktopNotifier{AppName: "PhishGuard"}
		if d.CanShow() {
			multi = append(multi, d)
		}
	}
	return multi
}

// Close releases the store after in-flight alerts finish.
func (c *Components) Close() error {
	c.Presenter.Wait()
	return c.Store.Close()
}
