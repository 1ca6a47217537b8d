package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// HeaderRequestID is the response header carrying the generated request ID.
const HeaderRequestID = "X-Request-ID"

// RequestID assigns every request a UUID, stored in the request context and
// echoed back in the response headers.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := uuid.NewString()
			ctx := context.WithValue(c.Request().Context(), requestIDKey, id)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(HeaderRequestID, id)
			return next(c)
		}
	}
}

// RequestIDFromContext returns the request ID, or "" when none was assigned.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
