package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwatch/inkwatch/internal/api"
	"github.com/inkwatch/inkwatch/internal/config"
	"github.com/inkwatch/inkwatch/internal/database"
	"github.com/inkwatch/inkwatch/internal/feed"
	"github.com/inkwatch/inkwatch/internal/scheduler"
	"github.com/inkwatch/inkwatch/internal/server"
	"github.com/inkwatch/inkwatch/internal/trend"
)

// Command inkwatch runs the TRMNL companion service.
//
// The service:
//   - polls the TRMNL cloud API for device battery/WiFi telemetry
//   - stores one battery sample per device per recording event
//   - predicts battery depletion from a least-squares trend fit
//   - recommends (never performs) clearing unrepresentative history
//   - mirrors the TRMNL announcements feed with read/unread state
//   - serves everything over a JSON HTTP API with Prometheus metrics
//
// Usage:
//
//	inkwatch [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"port": cfg.Server.Port,
	}).Info("Starting inkwatch")

	repo, err := database.NewPostgresRepo(cfg.Database.ConnectionString(), cfg.Database.MaxConnections)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(cfg.TRMNL.BaseURL, cfg.TRMNL.APIKey)
	recorder := api.NewRecorder(client, repo, logger)
	feedFetcher := feed.NewFetcher(cfg.Feed.URL, repo, logger)

	analyzer := trend.NewAnalyzer(trend.Config{
		ChargeJumpThreshold: cfg.Trend.ChargeJumpThreshold,
		StalenessWindow:     cfg.Trend.StalenessWindow(),
	})
	retention := trend.RetentionPolicy{
		MaxAge:     cfg.Retention.MaxAge(),
		MaxSamples: cfg.Retention.MaxSamples,
	}

	jobs := scheduler.NewScheduler(ctx, scheduler.Config{
		RecordCron: cfg.Schedule.RecordCron,
		FeedCron:   cfg.Schedule.FeedCron,
		PruneCron:  cfg.Schedule.PruneCron,
	}, recorder, feedFetcher, repo, retention, logger)

	srv, err := server.New(server.Config{
		CacheSize:      cfg.Server.CacheSize,
		RateLimit:      cfg.Server.RateLimit,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}, server.Deps{
		Devices:  client,
		Samples:  repo,
		Recorder: recorder,
		Feed:     repo,
		Analyzer: analyzer,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to setup server: %v", err)
	}

	errChan := make(chan error, 1)

	if err := jobs.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}

	// Refresh the feed once at startup so the UI is not empty until the
	// first scheduled run.
	go func() {
		if err := feedFetcher.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("Initial feed refresh failed")
		}
	}()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Start(addr); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	go handleShutdown(ctx, cancel, srv, jobs, repo, logger)

	if err := <-errChan; err != nil {
		logger.WithError(err).Info("Service stopped")
	}
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func handleShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	srv *server.Server,
	jobs *scheduler.Scheduler,
	repo *database.PostgresRepo,
	logger *logrus.Logger,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("Context canceled, initiating shutdown")
	case sig := <-sigChan:
		logger.Infof("Received signal %v, initiating shutdown", sig)
	}
	cancel()

	jobs.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	if err := repo.Close(); err != nil {
		logger.WithError(err).Error("Failed to close database")
	}
	logger.Info("Server stopped")
}
