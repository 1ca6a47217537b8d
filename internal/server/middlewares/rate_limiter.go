package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond limit requests per second with bursts of
// up to burst, answering 429.
func RateLimit(limit float64, burst int) echo.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
