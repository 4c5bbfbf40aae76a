// Package app wires configuration, storage and the orchestrator into the
// HTTP and MCP front ends used by the formflow binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/internal/config"
	"github.com/goliatone/go-formflow/internal/httpapi"
	"github.com/goliatone/go-formflow/internal/mcpserver"
	"github.com/goliatone/go-formflow/pkg/fieldtypes"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/vanilla"
	"github.com/goliatone/go-formflow/pkg/runtime"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/store"
	"github.com/goliatone/go-formflow/pkg/store/mongostore"
	"github.com/goliatone/go-formflow/pkg/store/rediscache"
	"github.com/goliatone/go-formflow/pkg/store/sqlstore"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// App holds the assembled dependencies.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	orch    *orchestrator.Orchestrator
	store   store.Store
	closers []func(context.Context) error
}

// Option customises New.
type Option func(*options)

type options struct {
	extra []orchestrator.Option
	store store.Store
}

// WithOrchestratorOptions appends options applied after the configured ones.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(o *options) {
		o.extra = append(o.extra, opts...)
	}
}

// WithStore bypasses the configured driver.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// New initializes the application: config → store → cache → seed → orchestrator.
func New(ctx context.Context, logger *zap.Logger, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	a := &App{cfg: cfg, logger: logger}

	backing := o.store
	if backing == nil {
		var err error
		backing, err = a.openStore(ctx)
		if err != nil {
			return nil, err
		}
	}
	cached, err := a.wrapCache(ctx, backing)
	if err != nil {
		_ = a.Shutdown(ctx)
		return nil, err
	}
	a.store = cached

	if err := a.seed(ctx); err != nil {
		_ = a.Shutdown(ctx)
		return nil, err
	}

	types := fieldtypes.NewDefaultRegistry()
	html, err := vanilla.New(
		vanilla.WithFieldTypes(types),
		vanilla.WithLogger(logger.Named("vanilla")),
		vanilla.WithAssetPrefix(cfg.Assets.Prefix),
	)
	if err != nil {
		_ = a.Shutdown(ctx)
		return nil, fmt.Errorf("vanilla renderer: %w", err)
	}
	renderers := render.NewRegistry()
	renderers.MustRegister(html)

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger.Named("orchestrator")),
		orchestrator.WithFieldTypes(types),
		orchestrator.WithRegistry(renderers),
		orchestrator.WithValidator(validation.New(
			validation.WithRegistry(types),
			validation.WithLimits(cfg.Limits),
			validation.WithLogger(logger.Named("validation")),
		)),
		orchestrator.WithStore(a.store),
	}
	if manifests := cfg.Theme.ToManifests(); len(manifests) > 0 {
		orchOpts = append(orchOpts, orchestrator.WithThemes(cfg.Theme.Default, cfg.Theme.Variant, manifests...))
	}
	a.orch = orchestrator.New(append(orchOpts, o.extra...)...)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.Store.Driver {
	case config.DriverMySQL:
		dsn, err := a.cfg.Store.MySQL.DSNValue()
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.Open(dsn,
			sqlstore.WithLogger(a.logger.Named("sqlstore")),
			sqlstore.WithAutoMigrate(a.cfg.Store.MySQL.AutoMigrate),
		)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		a.logger.Info("using mysql store")
		return s, nil
	case config.DriverMongo:
		mongo := a.cfg.Store.Mongo
		s, err := mongostore.Connect(ctx, mongo.URI, mongo.Database, mongo.Collection,
			mongostore.WithLogger(a.logger.Named("mongostore")),
		)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		a.logger.Info("using mongo store", zap.String("database", mongo.Database))
		return s, nil
	default:
		a.logger.Info("using in-memory store")
		return store.NewMemory(), nil
	}
}

func (a *App) wrapCache(ctx context.Context, next store.Store) (store.Store, error) {
	if a.cfg.Cache.RedisURL == "" {
		return next, nil
	}
	rdb, err := rediscache.Dial(ctx, a.cfg.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	return rediscache.New(next, rdb,
		rediscache.WithTTL(a.cfg.Cache.TTL),
		rediscache.WithPrefix(a.cfg.Cache.Prefix),
		rediscache.WithLogger(a.logger.Named("rediscache")),
	), nil
}

func (a *App) seed(ctx context.Context) error {
	if a.cfg.SchemasDir == "" {
		return nil
	}
	lib, err := schema.LoadFS(os.DirFS(a.cfg.SchemasDir))
	if err != nil {
		return fmt.Errorf("load schemas from %q: %w", a.cfg.SchemasDir, err)
	}
	skipped, err := store.Seed(ctx, a.store, lib)
	if err != nil {
		return err
	}
	a.logger.Info("seeded schemas",
		zap.String("dir", a.cfg.SchemasDir),
		zap.Int("entries", len(lib.Entries())),
		zap.Strings("skipped", skipped),
	)
	return nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return a.cfg.Addr() }

// Orchestrator returns the configured orchestrator.
func (a *App) Orchestrator() *orchestrator.Orchestrator { return a.orch }

// Router returns the HTTP handler, including the runtime asset routes.
func (a *App) Router() http.Handler {
	assets := runtime.NewHandler(
		runtime.WithMinify(a.cfg.Assets.Minify),
		runtime.WithLogger(a.logger.Named("assets")),
	)
	return httpapi.New(a.orch,
		httpapi.WithLogger(a.logger.Named("http")),
		httpapi.WithAllowedOrigins(a.cfg.AllowedOrigins),
		httpapi.WithAssets(httpapi.DefaultAssetPath, assets),
	).Handler()
}

// MCP returns the MCP front end. Schema files are read from the configured
// schemas directory when one is set.
func (a *App) MCP(version string) *mcpserver.Server {
	opts := []mcpserver.Option{
		mcpserver.WithLogger(a.logger.Named("mcp")),
		mcpserver.WithVersion(version),
	}
	if a.cfg.SchemasDir != "" {
		opts = append(opts, mcpserver.WithSchemaFS(os.DirFS(a.cfg.SchemasDir)))
	}
	return mcpserver.New(a.orch, opts...)
}

// Shutdown releases store and cache connections in reverse order.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
