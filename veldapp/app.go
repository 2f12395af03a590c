package veldapp

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithServerConfig replaces the default server configuration.
func WithServerConfig(cfg ServerConfig) Option {
	return func(c *AppConfig) {
		c.ServerConfig = cfg
	}
}

// NewApp creates a batteries-included app with dependency injection.
//
// The routing function can request any types that are provided via fx
// options. At minimum, it should accept *veld.App for routing:
//
//	veldapp.NewApp[Env](func(app *veld.App, h *Handlers) {
//	    app.Get("/items", h.ListItems)
//	},
//	    veldapp.WithFx(fx.Provide(NewHandlers)),
//	).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 10+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewMetrics),
		fx.Provide(NewVeldApp),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		fx.Invoke(routing),
		fx.Invoke(startServerHook),
	}...)

	baseOpts = append(baseOpts, cfg.FxOptions...)

	return &App{app: fx.New(baseOpts...)}
}

// Run starts the app and blocks until shutdown.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the app without blocking; mainly useful in tests.
func (a *App) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

// Stop stops a started app.
func (a *App) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// Err surfaces dependency injection failures.
func (a *App) Err() error {
	return a.app.Err()
}
