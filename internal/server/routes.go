package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Presenter REST API (remote controls and integrations)
	api := s.echo.Group("/api")
	api.POST("/slides/next", s.handleNextSlide)
	api.POST("/slides/prev", s.handlePrevSlide)
	api.POST("/steps/next", s.handleNextStep)
	api.POST("/steps/prev", s.handlePrevStep)
	api.POST("/questions/:id/toggle", s.handleToggleQuestion)
	api.GET("/state", s.handleState)

	// WebSocket endpoints
	s.echo.GET("/ws/viewer", s.handleViewerSocket)
	s.echo.GET("/ws/presenter", s.handlePresenterSocket)
}
