// Package api implements the TRMNL cloud API client and the battery sample
// recorder built on top of it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/inkwatch/inkwatch/internal/models"
)

var (
	// ErrRequest wraps transport-level failures talking to the cloud API.
	ErrRequest = errors.New("error making TRMNL API request")
	// ErrStatus wraps non-200 responses from the cloud API.
	ErrStatus = errors.New("error status from TRMNL API")
)

const requestTimeout = 30 * time.Second

// Client talks to the TRMNL cloud API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL, authenticating
// with the account access token.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

// devicesResponse mirrors the cloud API's device list payload.
type devicesResponse struct {
	Data []struct {
		ID             int64   `json:"id"`
		Name           string  `json:"name"`
		FriendlyID     string  `json:"friendly_id"`
		PercentCharged float64 `json:"percent_charged"`
		BatteryVoltage float64 `json:"battery_voltage"`
		WifiStrength   int     `json:"wifi_strength"`
		RSSI           int     `json:"rssi"`
	} `json:"data"`
}

// screenResponse mirrors the current-screen payload.
type screenResponse struct {
	ImageURL    string `json:"image_url"`
	Filename    string `json:"filename"`
	RefreshRate int    `json:"refresh_rate"`
}

// ListDevices returns all devices owned by the account, with their current
// battery and WiFi telemetry.
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	var resp devicesResponse
	if err := c.get(ctx, c.baseURL+"/devices", c.apiKey, &resp); err != nil {
		return nil, err
	}

	devices := make([]models.Device, len(resp.Data))
	for i, d := range resp.Data {
		devices[i] = models.Device{
			ID:             strconv.FormatInt(d.ID, 10),
			Name:           d.Name,
			FriendlyID:     d.FriendlyID,
			PercentCharged: d.PercentCharged,
			BatteryVoltage: d.BatteryVoltage,
			WifiStrength:   d.WifiStrength,
			RSSI:           d.RSSI,
		}
	}
	return devices, nil
}

// CurrentScreen returns what a device is currently displaying. The cloud
// API authenticates this endpoint with the device's own access token.
func (c *Client) CurrentScreen(ctx context.Context, deviceAPIKey string) (models.Screen, error) {
	var resp screenResponse
	if err := c.get(ctx, c.baseURL+"/current_screen", deviceAPIKey, &resp); err != nil {
		return models.Screen{}, err
	}
	return models.Screen{
		ImageURL:    resp.ImageURL,
		Filename:    resp.Filename,
		RefreshRate: resp.RefreshRate,
	}, nil
}

func (c *Client) get(ctx context.Context, url, token string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Access-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: got %d", ErrStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}
