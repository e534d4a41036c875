// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/artpar/occi/adapters/clock"
	"github.com/artpar/occi/adapters/hasher"
	occihttp "github.com/artpar/occi/adapters/http"
	"github.com/artpar/occi/adapters/idgen"
	"github.com/artpar/occi/adapters/memory"
	"github.com/artpar/occi/adapters/metrics"
	"github.com/artpar/occi/adapters/sqlite"
	"github.com/artpar/occi/app"
	"github.com/artpar/occi/config"
	"github.com/artpar/occi/core/registry"
	"github.com/artpar/occi/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Services
	Catalogue *app.CatalogueService
	Entities  *app.EntityService

	// Adapters (for cleanup)
	backend ports.Backend
	db      *sqlite.DB
	remote  *occihttp.Client
	watcher *fsnotify.Watcher

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Options provides optional overrides for application initialization.
type Options struct {
	// Metrics substitutes the collector, which otherwise registers into
	// the process-wide Prometheus registry. Tests building several apps
	// in one process need isolated collectors.
	Metrics *metrics.Collector
}

// New creates and initializes the application from a loaded configuration.
func New(cfg *config.Config) (*App, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates and initializes the application with custom overrides.
func NewWithOptions(cfg *config.Config, opts Options) (*App, error) {
	logger := setupLogger(cfg.Logging)

	logger.Info().Msg("initializing occi")

	a := &App{
		Logger: logger,
		Config: cfg,
		stopCh: make(chan struct{}),
	}

	a.Metrics = opts.Metrics
	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}

	backend, err := a.buildBackend()
	if err != nil {
		return nil, fmt.Errorf("init backend: %w", err)
	}
	a.backend = backend

	if err := a.initServices(); err != nil {
		a.closeBackend()
		return nil, err
	}

	if cfg.Catalogue.Watch && len(cfg.Catalogue.Files) > 0 {
		if err := a.watchCatalogue(); err != nil {
			logger.Warn().Err(err).Msg("catalogue watch unavailable")
		}
	}

	if err := a.initHTTPServer(); err != nil {
		a.closeBackend()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return a, nil
}

func (a *App) buildBackend() (ports.Backend, error) {
	cfg := a.Config.Backend

	switch cfg.Mode {
	case "memory":
		opts := make([]memory.Option, 0, len(cfg.Transitions))
		for term, state := range cfg.Transitions {
			opts = append(opts, memory.WithTransition(term, state))
		}
		a.Logger.Info().Msg("using in-memory backend")
		return memory.New(opts...), nil

	case "sqlite":
		db, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		a.db = db
		a.Logger.Info().Str("dsn", cfg.DSN).Msg("sqlite backend initialized")
		return sqlite.NewStore(db), nil

	case "remote":
		client, err := occihttp.NewClient(occihttp.ClientConfig{
			BaseURL:  cfg.Remote.URL,
			Timeout:  cfg.Remote.Timeout,
			Username: cfg.Remote.Username,
			Password: cfg.Remote.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("remote backend: %w", err)
		}
		a.remote = client
		a.Logger.Info().Str("url", cfg.Remote.URL).Msg("remote backend initialized")
		return client, nil

	default:
		return nil, fmt.Errorf("unknown backend mode %q", cfg.Mode)
	}
}

func (a *App) initServices() error {
	ctx := context.Background()

	catalogue, err := app.NewCatalogueService(
		registry.New(),
		clock.Real{},
		a.Metrics,
		a.Logger,
		app.CatalogueConfig{
			Files:        a.Config.Catalogue.Files,
			SkipBuiltins: a.Config.Catalogue.SkipBuiltins,
		},
	)
	if err != nil {
		return fmt.Errorf("init catalogue: %w", err)
	}
	if err := catalogue.Load(ctx); err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}
	if a.Config.Catalogue.FromBackend && a.remote != nil {
		if err := catalogue.LoadSource(ctx, a.remote); err != nil {
			return fmt.Errorf("load remote catalogue: %w", err)
		}
		a.Logger.Info().Msg("catalogue mirrored from remote backend")
	}
	a.Catalogue = catalogue

	a.Entities = app.NewEntityService(app.EntityDeps{
		Registry: catalogue.Registry(),
		Backend:  a.backend,
		Clock:    clock.Real{},
		IDGen:    idgen.UUID{},
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})

	a.Logger.Info().
		Int("definitions", catalogue.Registry().Len()).
		Msg("services initialized")
	return nil
}

func (a *App) initHTTPServer() error {
	cfg := a.Config

	auth, err := buildBasicAuth(cfg.Auth)
	if err != nil {
		return err
	}
	if auth != nil {
		a.Logger.Info().Str("username", auth.Username).Msg("basic auth enabled for /v1")
	}

	entityHandler := occihttp.NewEntityHandler(a.Entities, a.backend, a.Logger)
	catalogueHandler := occihttp.NewCatalogueHandler(a.Catalogue, a.Logger)
	healthHandler := occihttp.NewHealthHandler(a.backend)

	routerCfg := occihttp.RouterConfig{
		EnableOpenAPI: cfg.OpenAPI.Enabled,
		BasicAuth:     auth,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = a.Metrics
	}

	router := occihttp.NewRouterWithConfig(entityHandler, catalogueHandler, healthHandler, a.Logger, routerCfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	a.HTTPServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Info().Str("addr", addr).Msg("http server configured")
	return nil
}

// watchCatalogue reloads the catalogue when a definition file changes.
func (a *App) watchCatalogue() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	names := make(map[string]bool, len(a.Config.Catalogue.Files))
	dirs := make(map[string]bool)
	for _, f := range a.Config.Catalogue.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			watcher.Close()
			return fmt.Errorf("absolute path: %w", err)
		}
		names[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	// Watch the directories (more reliable for editors that do atomic saves)
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	a.watcher = watcher

	go a.watchLoop(names)

	a.Logger.Info().Int("files", len(names)).Msg("watching catalogue files for changes")
	return nil
}

func (a *App) watchLoop(names map[string]bool) {
	for {
		select {
		case event, ok := <-a.watcher.Events:
			if !ok {
				return
			}

			abs, err := filepath.Abs(event.Name)
			if err != nil || !names[abs] {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				a.Logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("catalogue file changed")

				if err := a.Catalogue.Reload(context.Background()); err != nil {
					a.Logger.Error().Err(err).Msg("catalogue reload failed")
				}
			}

		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			a.Logger.Error().Err(err).Msg("catalogue watcher error")

		case <-a.stopCh:
			return
		}
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.stopOnce.Do(func() { close(a.stopCh) })

	if a.watcher != nil {
		a.watcher.Close()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.closeBackend()

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) closeBackend() {
	if a.remote != nil {
		a.remote.Close()
		a.remote = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
		a.db = nil
	}
}

// Reload re-reads the configured catalogue definition files and, when
// the catalogue is mirrored from a remote backend, pulls the server's
// current definitions again. Wired to SIGHUP by the serve command.
func (a *App) Reload(ctx context.Context) error {
	if err := a.Catalogue.Reload(ctx); err != nil {
		return err
	}
	if a.remote != nil && a.Config.Catalogue.FromBackend {
		return a.Catalogue.LoadSource(ctx, a.remote)
	}
	return nil
}

func buildBasicAuth(cfg config.AuthConfig) (*occihttp.BasicAuth, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	h := hasher.NewBcrypt(0)
	var hash []byte
	if cfg.PasswordHash != "" {
		hash = []byte(cfg.PasswordHash)
	} else {
		var err error
		hash, err = h.Hash(cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("hash auth password: %w", err)
		}
	}

	return &occihttp.BasicAuth{
		Username: cfg.Username,
		Password: hash,
		Hasher:   h,
	}, nil
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
