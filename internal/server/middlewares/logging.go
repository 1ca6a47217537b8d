package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Logging logs one line per request with the request ID assigned upstream.
func Logging(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let echo render the error before reading the status.
				c.Error(err)
			}

			logger.WithFields(logrus.Fields{
				"request_id": RequestIDFromContext(c.Request().Context()),
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"status":     c.Response().Status,
				"duration":   time.Since(start).String(),
			}).Info("Handled request")

			return err
		}
	}
}
