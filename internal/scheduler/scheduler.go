// Package scheduler runs the background jobs: periodic battery recording,
// feed refresh and retention pruning.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/inkwatch/inkwatch/internal/models"
	"github.com/inkwatch/inkwatch/internal/trend"
)

const jobTimeout = 2 * time.Minute

// Recorder records one battery sample per device.
type Recorder interface {
	RecordAll(ctx context.Context) error
}

// FeedRefresher refreshes the mirrored content feed.
type FeedRefresher interface {
	Refresh(ctx context.Context) error
}

// PruneStore is the slice of the sample store the pruning job needs.
type PruneStore interface {
	DeviceIDs(ctx context.Context) ([]string, error)
	SamplesForDevice(ctx context.Context, deviceID string) ([]models.BatterySample, error)
	DeleteSamplesBefore(ctx context.Context, deviceID string, cutoff time.Time) (int64, error)
}

// Config holds the cron expressions for each job.
type Config struct {
	RecordCron string
	FeedCron   string
	PruneCron  string
}

// Scheduler owns the cron runner and the jobs it drives.
type Scheduler struct {
	ctx       context.Context
	cfg       Config
	recorder  Recorder
	feed      FeedRefresher
	store     PruneStore
	retention trend.RetentionPolicy
	logger    *logrus.Logger
	cron      *cron.Cron
}

// NewScheduler wires the background jobs. Any of recorder, feed or store may
// be nil to disable the corresponding job.
func NewScheduler(
	ctx context.Context,
	cfg Config,
	recorder Recorder,
	feed FeedRefresher,
	store PruneStore,
	retention trend.RetentionPolicy,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		ctx:       ctx,
		cfg:       cfg,
		recorder:  recorder,
		feed:      feed,
		store:     store,
		retention: retention,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.recorder != nil {
		if _, err := s.cron.AddFunc(s.cfg.RecordCron, s.recordSamples); err != nil {
			return err
		}
	}
	if s.feed != nil {
		if _, err := s.cron.AddFunc(s.cfg.FeedCron, s.refreshFeed); err != nil {
			return err
		}
	}
	if s.store != nil {
		if _, err := s.cron.AddFunc(s.cfg.PruneCron, s.pruneHistory); err != nil {
			return err
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runner. Running jobs finish on their own timeouts.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) recordSamples() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	if err := s.recorder.RecordAll(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to record battery samples")
	}
}

func (s *Scheduler) refreshFeed() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	if err := s.feed.Refresh(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to refresh feed")
	}
}

// pruneHistory applies the retention policy device by device. The policy
// computes a cutoff from the stored snapshot; the store executes the delete.
func (s *Scheduler) pruneHistory() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	ids, err := s.store.DeviceIDs(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list devices for pruning")
		return
	}

	now := time.Now()
	for _, id := range ids {
		samples, err := s.store.SamplesForDevice(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("device", id).Error("Failed to load samples for pruning")
			continue
		}

		cutoff, ok := s.retention.Cutoff(samples, now)
		if !ok {
			continue
		}

		deleted, err := s.store.DeleteSamplesBefore(ctx, id, cutoff)
		if err != nil {
			s.logger.WithError(err).WithField("device", id).Error("Failed to prune samples")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"device":  id,
			"deleted": deleted,
		}).Info("Pruned battery history")
	}
}
