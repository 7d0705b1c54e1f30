package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalHTTPMetrics *HTTPMetrics
	httpMetricsOnce   sync.Once
)

// HTTPMetrics holds Prometheus metrics for the HTTP layer.
type HTTPMetrics struct {
	RequestsTotal  *prometheus.CounterVec
	RequestDur     *prometheus.HistogramVec
	ActiveRequests prometheus.Gauge
}

// NewHTTPMetrics creates and registers HTTP metrics. sync.Once guards
// against duplicate collector registration.
//
// Metrics:
//   - coachd_http_requests_total{method,endpoint,status} - request counts
//   - coachd_http_request_duration_seconds{method,endpoint} - latency
//   - coachd_http_active_requests - in-flight requests
func NewHTTPMetrics() *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		globalHTTPMetrics = &HTTPMetrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "coachd_http_requests_total",
					Help: "Total HTTP requests by method, endpoint and status",
				},
				[]string{"method", "endpoint", "status"},
			),

			RequestDur: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "coachd_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
				},
				[]string{"method", "endpoint"},
			),

			ActiveRequests: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "coachd_http_active_requests",
					Help: "Number of currently active HTTP requests",
				},
			),
		}
	})
	return globalHTTPMetrics
}

// Middleware returns an Echo middleware that records HTTP metrics.
// c.Path() is the registered route pattern, not the raw URI, so label
// cardinality stays bounded.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.ActiveRequests.Inc()

			err := next(c)

			m.ActiveRequests.Dec()

			method := c.Request().Method
			endpoint := c.Path()
			status := strconv.Itoa(c.Response().Status)

			m.RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
			m.RequestDur.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
