package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/deckpulse/internal/platform/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Since(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

// handleReadiness reports ready as soon as the process serves traffic.
// All state is in memory, so there are no dependencies to probe.
func (s *Server) handleReadiness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ready",
		"connections": s.limits.Active(),
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
