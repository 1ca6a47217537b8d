package models

import "time"

// Device is one TRMNL device as reported by the cloud API.
type Device struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	FriendlyID     string  `json:"friendly_id"`
	PercentCharged float64 `json:"percent_charged"`
	BatteryVoltage float64 `json:"battery_voltage"`
	WifiStrength   int     `json:"wifi_strength"`
	RSSI           int     `json:"rssi"`
}

// BatterySample is one (timestamp, battery-percent) observation for a device.
// PercentCharged is expected to lie in [0,100]; that is guaranteed by the
// telemetry source, not validated here. Voltage is informational only.
type BatterySample struct {
	DeviceID       string    `json:"device_id"`
	PercentCharged float64   `json:"percent_charged"`
	Voltage        *float64  `json:"voltage,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// TrendPrediction is the read-model produced by the trend analyzer. It is
// constructed fresh on every analysis call and never persisted.
type TrendPrediction struct {
	// DrainPerDay is the average percent of charge lost per day, always
	// positive (a non-discharging trend yields no prediction at all).
	DrainPerDay float64 `json:"drainage_rate_percent_per_day"`
	// DataPointsUsed is the number of samples included in the fit.
	DataPointsUsed int `json:"data_points_used"`
	// DaysRemaining is the estimated time to an empty battery, in days.
	DaysRemaining float64 `json:"estimated_days_remaining"`
}

// Screen describes the image a device is currently displaying.
type Screen struct {
	ImageURL    string `json:"image_url"`
	Filename    string `json:"filename"`
	RefreshRate int    `json:"refresh_rate"`
}

// FeedItem is one entry of the TRMNL announcements/blog feed, mirrored
// locally so read state survives refreshes.
type FeedItem struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
	Read        bool      `json:"read"`
}
