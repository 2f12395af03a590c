package veldapp

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/veldhttp/veld"
)

// Metrics observes served requests.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the request metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "veld_requests_total",
			Help: "Served requests by method, path pattern and status.",
		}, []string{"method", "pattern", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veld_request_duration_seconds",
			Help:    "Request duration by method and path pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "pattern"}),
	}

	registry.MustRegister(m.requests, m.duration)

	return m
}

// Middleware records one observation per dispatched request. The path
// label uses the route's pattern, not the raw path, to bound cardinality.
func (m *Metrics) Middleware() veld.Middleware {
	return func(c *veld.Context, w *veld.ResponseWriter, next veld.Next) error {
		err := next()

		pattern := c.Path
		if c.Route != nil {
			pattern = c.Route.Pattern().String()
		}

		status := w.StatusCode()
		if err != nil {
			status = veld.StatusOf(err)
		}

		m.requests.WithLabelValues(c.Method, pattern, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(c.Method, pattern).Observe(c.Since().Seconds())

		return err
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
