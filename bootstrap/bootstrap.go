// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/adapters/clock"
	"github.com/archonlabs/provgate/adapters/crypto"
	"github.com/archonlabs/provgate/adapters/idgen"
	"github.com/archonlabs/provgate/adapters/memory"
	"github.com/archonlabs/provgate/adapters/metrics"
	"github.com/archonlabs/provgate/adapters/sqlite"
	"github.com/archonlabs/provgate/app"
	"github.com/archonlabs/provgate/config"
	"github.com/archonlabs/provgate/pkg/debounce"
	"github.com/archonlabs/provgate/ports"
	"github.com/archonlabs/provgate/web"
)

// Version is set via ldflags at build time.
var Version = "dev"

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Providers *app.ProviderService
	Usage     *app.UsageService
	Health    *app.HealthService

	// mu guards cfg and stopHealth: the debounced reload goroutine
	// swaps the config while the health loop reads it.
	mu         sync.RWMutex
	cfg        *config.Config
	stopHealth func()

	holder   *config.Holder
	reloadDb *debounce.Debouncer
}

// New creates and initializes the application from a loaded config.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)
	logger.Info().Str("version", Version).Msg("initializing provgate")

	a := &App{
		Logger: logger,
		cfg:    cfg,
	}

	if err := a.initServices(); err != nil {
		return nil, err
	}
	a.initHTTPServer()

	return a, nil
}

// Config returns the current configuration. Hot reload swaps it, so
// callers must not cache the pointer across reloads.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// NewWithHotReload creates the application with config file watching.
// Reloadable settings (log level, health cadence) are re-applied on
// change; the rest requires a restart.
func NewWithHotReload(path string) (*App, error) {
	holder, err := config.NewHolder(path, setupLogger(config.LoggingConfig{Level: "info", Format: "json"}))
	if err != nil {
		return nil, err
	}

	a, err := New(holder.Get())
	if err != nil {
		holder.Stop()
		return nil, err
	}
	a.holder = holder

	// Editors often emit several fsnotify events per save; coalesce the
	// resulting notifications before re-applying settings.
	a.reloadDb = debounce.New(250 * time.Millisecond)
	holder.OnChange(func(cfg *config.Config) {
		a.reloadDb.Schedule(func() { a.applyReload(cfg) })
	})
	holder.OnError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})

	if err := holder.WatchFile(); err != nil {
		return nil, fmt.Errorf("watch config: %w", err)
	}
	holder.WatchSignals()

	return a, nil
}

func (a *App) applyReload(cfg *config.Config) {
	a.mu.Lock()
	old := a.cfg
	a.cfg = cfg
	a.mu.Unlock()

	zerolog.SetGlobalLevel(parseLevel(cfg.Logging.Level))
	if old.Health.Interval != cfg.Health.Interval {
		a.stopHealthLoop()
		a.startHealthLoop(cfg.Health.Interval)
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	}
	a.Logger.Info().Msg("reloadable settings applied")
}

func (a *App) initServices() error {
	cfg := a.cfg

	cipher, err := crypto.NewSecretBox(cfg.Encryption.Key)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	var (
		providerStore   ports.ProviderStore
		credentialStore ports.CredentialStore
		modelStore      ports.ModelStore
		usageStore      ports.UsageStore
		healthStore     ports.HealthStore
	)

	switch cfg.Database.Driver {
	case "memory":
		providerStore = memory.NewProviderStore()
		credentialStore = memory.NewCredentialStore()
		modelStore = memory.NewModelStore()
		usageStore = memory.NewUsageStore()
		healthStore = memory.NewHealthStore()
		a.Logger.Warn().Msg("using in-memory storage, data is not persisted")
	default:
		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return fmt.Errorf("migrate database: %w", err)
		}
		a.DB = db
		providerStore = sqlite.NewProviderStore(db)
		credentialStore = sqlite.NewCredentialStore(db)
		modelStore = sqlite.NewModelStore(db)
		usageStore = sqlite.NewUsageStore(db)
		healthStore = sqlite.NewHealthStore(db)
		a.Logger.Info().Str("dsn", cfg.Database.DSN).Msg("database ready")
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Logger.Info().Msg("prometheus metrics enabled")
	}

	clk := clock.Real{}
	ids := idgen.UUID{}
	probeClient := &http.Client{Timeout: cfg.Health.ProbeTimeout}

	a.Providers = app.NewProviderService(providerStore, credentialStore, modelStore, cipher, clk, ids, a.Logger)
	a.Usage = app.NewUsageService(usageStore, modelStore, clk, ids, a.Metrics, a.Logger)
	a.Health = app.NewHealthService(providerStore, healthStore, probeClient, clk, ids, a.Metrics, a.Logger)

	return nil
}

func (a *App) initHTTPServer() {
	handler := web.NewHandler(web.Deps{
		Providers:   a.Providers,
		Usage:       a.Usage,
		Health:      a.Health,
		Metrics:     a.Metrics,
		Logger:      a.Logger,
		Version:     Version,
		DisableDocs: !a.cfg.OpenAPI.Enabled,
	})

	addr := a.cfg.Server.Host + ":" + strconv.Itoa(a.cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server listening")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	a.startHealthLoop(a.Config().Health.Interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// startHealthLoop probes active providers on the given interval. A
// zero interval leaves the loop off; applyReload re-arms it when the
// configured interval changes.
func (a *App) startHealthLoop(interval time.Duration) {
	if interval <= 0 {
		return
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.checkAllProviders()
			case <-done:
				return
			}
		}
	}()

	a.mu.Lock()
	a.stopHealth = func() { close(done) }
	a.mu.Unlock()

	a.Logger.Info().Dur("interval", interval).Msg("periodic health checks enabled")
}

// stopHealthLoop stops the loop if one is running. Safe to call twice.
func (a *App) stopHealthLoop() {
	a.mu.Lock()
	stop := a.stopHealth
	a.stopHealth = nil
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (a *App) checkAllProviders() {
	ctx, cancel := context.WithTimeout(context.Background(), a.Config().Health.ProbeTimeout+5*time.Second)
	defer cancel()

	active, err := a.Providers.ActiveProviders(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("health loop: list providers")
		return
	}
	for _, p := range active {
		if _, err := a.Health.CheckProvider(ctx, p.ID); err != nil {
			a.Logger.Error().Err(err).Str("provider_id", p.ID).Msg("health loop: check failed")
		}
	}
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.reloadDb != nil {
		a.reloadDb.Cancel()
	}
	if a.holder != nil {
		a.holder.Stop()
	}
	a.stopHealthLoop()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
