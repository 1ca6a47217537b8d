package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwatch/inkwatch/internal/models"
)

func TestListDevices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/devices", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Access-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
            {"id":101,"name":"Kitchen","friendly_id":"AB12CD","percent_charged":76.5,
             "battery_voltage":3.92,"wifi_strength":88,"rssi":-54},
            {"id":102,"name":"Office","friendly_id":"EF34GH","percent_charged":41.0,
             "battery_voltage":3.61,"wifi_strength":62,"rssi":-71}
        ]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	devices, err := client.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "101", devices[0].ID)
	assert.Equal(t, "Kitchen", devices[0].Name)
	assert.Equal(t, 76.5, devices[0].PercentCharged)
	assert.Equal(t, -71, devices[1].RSSI)
}

func TestListDevicesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-key")
	_, err := client.ListDevices(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestCurrentScreen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current_screen", r.URL.Path)
		assert.Equal(t, "device-key", r.Header.Get("Access-Token"))
		w.Write([]byte(`{"image_url":"https://cdn.example.com/s.png","filename":"s.png","refresh_rate":900}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "account-key")
	screen, err := client.CurrentScreen(context.Background(), "device-key")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/s.png", screen.ImageURL)
	assert.Equal(t, 900, screen.RefreshRate)
}

type fakeLister struct {
	devices []models.Device
	err     error
}

func (f *fakeLister) ListDevices(ctx context.Context) ([]models.Device, error) {
	return f.devices, f.err
}

type fakeWriter struct {
	inserted []models.BatterySample
	batched  [][]models.BatterySample
}

func (f *fakeWriter) InsertSample(ctx context.Context, s models.BatterySample) error {
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeWriter) BatchInsertSamples(ctx context.Context, samples []models.BatterySample) error {
	f.batched = append(f.batched, samples)
	return nil
}

func TestRecordAll(t *testing.T) {
	lister := &fakeLister{devices: []models.Device{
		{ID: "101", PercentCharged: 80, BatteryVoltage: 3.9},
		{ID: "102", PercentCharged: 55},
	}}
	writer := &fakeWriter{}

	rec := NewRecorder(lister, writer, logrus.New())
	rec.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }

	require.NoError(t, rec.RecordAll(context.Background()))
	require.Len(t, writer.batched, 1)
	samples := writer.batched[0]
	require.Len(t, samples, 2)

	assert.Equal(t, "101", samples[0].DeviceID)
	assert.Equal(t, 80.0, samples[0].PercentCharged)
	require.NotNil(t, samples[0].Voltage)
	assert.Equal(t, 3.9, *samples[0].Voltage)

	// Voltage is optional; unreported stays nil.
	assert.Nil(t, samples[1].Voltage)
	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), samples[1].RecordedAt)
}

func TestRecordDevice(t *testing.T) {
	lister := &fakeLister{devices: []models.Device{
		{ID: "101", PercentCharged: 80},
		{ID: "102", PercentCharged: 55},
	}}
	writer := &fakeWriter{}
	rec := NewRecorder(lister, writer, logrus.New())

	sample, err := rec.RecordDevice(context.Background(), "102")
	require.NoError(t, err)
	assert.Equal(t, "102", sample.DeviceID)
	assert.Equal(t, 55.0, sample.PercentCharged)
	require.Len(t, writer.inserted, 1)

	_, err = rec.RecordDevice(context.Background(), "999")
	assert.Error(t, err)
}
