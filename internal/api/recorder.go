package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwatch/inkwatch/internal/models"
)

// DeviceLister is the slice of the cloud client the recorder needs.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
}

// ErrUnknownDevice is returned when a recording is requested for a device
// the cloud account does not own.
var ErrUnknownDevice = errors.New("unknown device")

// SampleWriter is the slice of the sample store the recorder needs.
type SampleWriter interface {
	InsertSample(ctx context.Context, s models.BatterySample) error
	BatchInsertSamples(ctx context.Context, samples []models.BatterySample) error
}

// Recorder turns the cloud API's live telemetry into stored battery samples,
// one per device per recording event.
type Recorder struct {
	client DeviceLister
	repo   SampleWriter
	logger *logrus.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing through the given repository.
func NewRecorder(client DeviceLister, repo SampleWriter, logger *logrus.Logger) *Recorder {
	return &Recorder{
		client: client,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// RecordAll fetches the device list and stores one sample per device in a
// single transaction. This backs the scheduled weekly recording job.
func (r *Recorder) RecordAll(ctx context.Context) error {
	devices, err := r.client.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	recordedAt := r.now()
	samples := make([]models.BatterySample, len(devices))
	for i, d := range devices {
		samples[i] = sampleFromDevice(d, recordedAt)
	}

	if err := r.repo.BatchInsertSamples(ctx, samples); err != nil {
		return fmt.Errorf("failed to insert samples: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"devices": len(samples),
	}).Info("Recorded battery samples")
	return nil
}

// RecordDevice fetches live telemetry for one device and stores a sample.
// This backs the manual record action.
func (r *Recorder) RecordDevice(ctx context.Context, deviceID string) (models.BatterySample, error) {
	devices, err := r.client.ListDevices(ctx)
	if err != nil {
		return models.BatterySample{}, fmt.Errorf("failed to list devices: %w", err)
	}

	for _, d := range devices {
		if d.ID != deviceID {
			continue
		}
		sample := sampleFromDevice(d, r.now())
		if err := r.repo.InsertSample(ctx, sample); err != nil {
			return models.BatterySample{}, fmt.Errorf("failed to insert sample: %w", err)
		}
		return sample, nil
	}
	return models.BatterySample{}, fmt.Errorf("%w: %s", ErrUnknownDevice, deviceID)
}

func sampleFromDevice(d models.Device, recordedAt time.Time) models.BatterySample {
	sample := models.BatterySample{
		DeviceID:       d.ID,
		PercentCharged: d.PercentCharged,
		RecordedAt:     recordedAt,
	}
	if d.BatteryVoltage > 0 {
		v := d.BatteryVoltage
		sample.Voltage = &v
	}
	return sample
}
