package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Requests counts handled HTTP requests by path and status.
var Requests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkwatch_http_requests_total",
		Help: "Number of HTTP requests handled.",
	},
	[]string{"path", "status"},
)

// Latency observes request durations by path.
var Latency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "inkwatch_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"path"},
)

// Metrics records request count and latency. Paths are labeled by route
// pattern, not raw URL, to keep cardinality bounded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Render the error so the recorded status is real.
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			Requests.WithLabelValues(path, strconv.Itoa(c.Response().Status)).Inc()
			Latency.WithLabelValues(path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
