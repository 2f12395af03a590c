package veldapp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/veldhttp/veld"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerConfig holds optional configuration for the HTTP server.
type ServerConfig struct {
	// HealthPath is where the readiness endpoint is served. Defaults to
	// "/healthz".
	HealthPath string
	// HealthHandler can replace the default 200 OK readiness handler.
	HealthHandler veld.Handler
	// MetricsPath is where the Prometheus registry is exposed. Defaults to
	// "/metrics".
	MetricsPath string
}

// ServerParams holds the dependencies for creating an HTTP server.
type ServerParams struct {
	fx.In

	Env        Environment
	App        *veld.App
	Logger     *zap.Logger
	Metrics    *Metrics
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
}

// NewVeldApp builds the core application from the environment: production
// mode, zap-backed logging, request-id correlation, request logging and
// metrics middleware.
func NewVeldApp(env Environment, logger *zap.Logger, metrics *Metrics) *veld.App {
	cfg := veld.DefaultConfig()
	cfg.Production = env.production()

	app := veld.New(
		veld.WithConfig(cfg),
		veld.WithLogger(newVeldLogger(logger)),
	)

	app.Use(veld.RequestID())
	app.Use(veld.RequestLogger(logger))
	app.Use(metrics.Middleware())

	return app
}

// NewServer creates an HTTP server with routing, health, metrics and
// tracing configured.
func NewServer(params ServerParams, cfg ServerConfig) *http.Server {
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/healthz"
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	healthHandler := cfg.HealthHandler
	if healthHandler == nil {
		healthHandler = func(c *veld.Context, w *veld.ResponseWriter) error {
			return w.Send("ok")
		}
	}
	params.App.Get(healthPath, healthHandler)

	metricsHandler := params.Metrics.Handler()
	params.App.Get(metricsPath, func(c *veld.Context, w *veld.ResponseWriter) error {
		// Bypass the buffered writer helpers: promhttp writes directly.
		rec := newPassthrough(w)
		metricsHandler.ServeHTTP(rec, c.Request())
		return nil
	})

	// Tracing is disabled for the health path to avoid noisy probe traces.
	handler := withTracing(params.TracerProv, params.Propagator, params.Env.serviceName(), healthPath)(params.App)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", params.Env.port()),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       35 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       time.Minute,
	}
}

// startServerHook binds the server to the fx lifecycle.
func startServerHook(lc fx.Lifecycle, srv *http.Server, logs *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logs.Info("starting http server", zap.String("addr", srv.Addr))

			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logs.Error("http server failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// passthrough adapts the buffered veld.ResponseWriter to handlers from the
// wider http ecosystem.
type passthrough struct {
	w *veld.ResponseWriter
}

func newPassthrough(w *veld.ResponseWriter) http.ResponseWriter {
	return &passthrough{w}
}

func (p *passthrough) Header() http.Header         { return p.w.Header() }
func (p *passthrough) WriteHeader(status int)      { p.w.WriteHeader(status) }
func (p *passthrough) Write(b []byte) (int, error) { return p.w.Write(b) }
