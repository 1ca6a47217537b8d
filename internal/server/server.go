// Package server exposes the JSON HTTP API: device telemetry, battery
// history and trend analysis, the mirrored content feed, health and metrics.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/inkwatch/inkwatch/internal/models"
	middleware "github.com/inkwatch/inkwatch/internal/server/middlewares"
	"github.com/inkwatch/inkwatch/internal/trend"
)

// Config holds configuration options for the HTTP server.
type Config struct {
	CacheSize      int     // Size of the LRU response cache
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheSize:      1000,
		RateLimit:      5.0,
		RateLimitBurst: 10,
	}
}

// SampleStore is the slice of the sample repository the handlers read from.
type SampleStore interface {
	SamplesForDevice(ctx context.Context, deviceID string) ([]models.BatterySample, error)
	DeleteSamplesForDevice(ctx context.Context, deviceID string) error
}

// DeviceService is the slice of the cloud client the handlers need.
type DeviceService interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	CurrentScreen(ctx context.Context, deviceAPIKey string) (models.Screen, error)
}

// SampleRecorder records one sample for one device on demand.
type SampleRecorder interface {
	RecordDevice(ctx context.Context, deviceID string) (models.BatterySample, error)
}

// FeedStore serves and mutates the mirrored feed.
type FeedStore interface {
	FeedItems(ctx context.Context) ([]models.FeedItem, error)
	MarkFeedItemRead(ctx context.Context, guid string) error
}

// Deps bundles everything the handlers depend on.
type Deps struct {
	Devices  DeviceService
	Samples  SampleStore
	Recorder SampleRecorder
	Feed     FeedStore
	Analyzer *trend.Analyzer
}

// Server is the HTTP front of the service.
type Server struct {
	echo  *echo.Echo
	cache *middleware.ResponseCache
	deps  Deps
}

// New builds the echo instance with the full middleware chain
// (request ID, rate limit, logging, metrics, response cache) and all routes.
func New(cfg Config, deps Deps, logger *logrus.Logger) (*Server, error) {
	cache, err := middleware.NewResponseCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	if err := registerMetrics(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		middleware.RequestID(),
		middleware.RateLimit(cfg.RateLimit, cfg.RateLimitBurst),
		middleware.Logging(logger),
		middleware.Metrics(),
		cache.Middleware(),
	)

	s := &Server{echo: e, cache: cache, deps: deps}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo

	api := e.Group("/api")
	api.GET("/devices", s.listDevices)
	api.GET("/devices/:id/battery", s.batteryHistory)
	api.GET("/devices/:id/battery/trend", s.batteryTrend)
	api.POST("/devices/:id/battery/record", s.recordSample)
	api.DELETE("/devices/:id/battery", s.clearHistory)
	api.GET("/devices/:id/screen", s.currentScreen)
	api.GET("/feed", s.feedItems)
	api.POST("/feed/:guid/read", s.markFeedRead)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Start begins serving on addr and blocks until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree, for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// registerMetrics tolerates re-registration so multiple server instances
// (tests) share the default registry.
func registerMetrics() error {
	for _, col := range []prometheus.Collector{middleware.Requests, middleware.Latency} {
		if err := prometheus.Register(col); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
