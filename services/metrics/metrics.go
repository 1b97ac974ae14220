// Package metrics exposes the dashboard's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "classboard"

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, so several instances can live side by side in tests.
func New() *Metrics {
	mtr := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of dashboard HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of dashboard HTTP requests",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		backendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Total number of requests issued to the classroom backend",
			},
			[]string{"endpoint", "status"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Duration of requests issued to the classroom backend",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"endpoint"},
		),
	}
	mtr.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		mtr.requests,
		mtr.requestDuration,
		mtr.backendRequests,
		mtr.backendDuration,
	)
	return mtr
}

// ObserveBackend records one backend call. status is 0 when no response was received.
func (mtr *Metrics) ObserveBackend(endpoint string, status int, took time.Duration) {
	if mtr == nil {
		return
	}
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	mtr.backendRequests.WithLabelValues(endpoint, label).Inc()
	mtr.backendDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// Middleware counts and times every request by route pattern.
func (mtr *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			mtr.requests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			mtr.requestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (mtr *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(mtr.registry, promhttp.HandlerOpts{})
}

// Gatherer is exposed for tests.
func (mtr *Metrics) Gatherer() prometheus.Gatherer {
	return mtr.registry
}
