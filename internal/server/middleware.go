package server

import (
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/deckpulse/internal/platform/correlation"
)

// correlationMiddleware assigns every request a fresh correlation ID.
// WebSocket handlers inherit it for the lifetime of the connection.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
