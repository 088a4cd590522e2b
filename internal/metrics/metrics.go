// Package metrics exposes Prometheus collectors for the panel.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	rosterSize      prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		backendRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitepanel_backend_requests_total",
				Help: "Backend REST calls, labeled by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitepanel_http_request_duration_seconds",
				Help:    "Panel HTTP request latencies, labeled by method, route and code.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "code"},
		),
		rosterSize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitepanel_roster_sites",
				Help: "Number of sites currently held in the roster.",
			},
		),
	}
}

// ObserveBackend counts one backend call. outcome is "ok" or "error".
func (m *Metrics) ObserveBackend(op, outcome string) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(op, outcome).Inc()
}

// BackendCounter returns the counter for one op/outcome pair. A nil
// *Metrics hands back an unregistered counter.
func (m *Metrics) BackendCounter(op, outcome string) prometheus.Counter {
	if m == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: "sitepanel_backend_requests_total"})
	}
	return m.backendRequests.WithLabelValues(op, outcome)
}

// SetRosterSize records the roster length after a change.
func (m *Metrics) SetRosterSize(n int) {
	if m == nil {
		return
	}
	m.rosterSize.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request durations per route pattern. Handler errors
// are passed on untouched so the outer middleware can log and commit them.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			code := strconv.Itoa(responseStatus(c, err))
			m.httpDuration.WithLabelValues(c.Request().Method, route, code).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// responseStatus is the code the client will get once err is handled.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
