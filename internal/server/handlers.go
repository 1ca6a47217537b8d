package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkwatch/inkwatch/internal/api"
	"github.com/inkwatch/inkwatch/internal/models"
)

// trendResponse is the trend endpoint payload. Prediction is null when the
// history cannot support one; that is a normal state, not an error.
type trendResponse struct {
	Prediction  *models.TrendPrediction `json:"prediction"`
	ClearReason string                  `json:"clear_reason"`
}

func (s *Server) listDevices(c echo.Context) error {
	devices, err := s.deps.Devices.ListDevices(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to reach TRMNL API")
	}
	return c.JSON(http.StatusOK, devices)
}

func (s *Server) batteryHistory(c echo.Context) error {
	samples, err := s.deps.Samples.SamplesForDevice(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history")
	}
	if samples == nil {
		samples = []models.BatterySample{}
	}
	return c.JSON(http.StatusOK, samples)
}

func (s *Server) batteryTrend(c echo.Context) error {
	samples, err := s.deps.Samples.SamplesForDevice(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history")
	}

	resp := trendResponse{
		ClearReason: s.deps.Analyzer.RecommendClear(samples).String(),
	}
	if pred, ok := s.deps.Analyzer.PredictDepletion(samples); ok {
		resp.Prediction = &pred
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) recordSample(c echo.Context) error {
	sample, err := s.deps.Recorder.RecordDevice(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, api.ErrUnknownDevice) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown device")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to record sample")
	}

	s.cache.Purge()
	return c.JSON(http.StatusCreated, sample)
}

func (s *Server) clearHistory(c echo.Context) error {
	if err := s.deps.Samples.DeleteSamplesForDevice(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear history")
	}

	s.cache.Purge()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) currentScreen(c echo.Context) error {
	token := c.QueryParam("access_token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "access_token query parameter required")
	}

	screen, err := s.deps.Devices.CurrentScreen(c.Request().Context(), token)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch current screen")
	}
	return c.JSON(http.StatusOK, screen)
}

func (s *Server) feedItems(c echo.Context) error {
	items, err := s.deps.Feed.FeedItems(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load feed")
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) markFeedRead(c echo.Context) error {
	if err := s.deps.Feed.MarkFeedItemRead(c.Request().Context(), c.Param("guid")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown feed item")
	}

	s.cache.Purge()
	return c.NoContent(http.StatusNoContent)
}
