package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pscheid92/deckpulse/internal/apperr"
	"github.com/pscheid92/deckpulse/internal/hub"
	"github.com/pscheid92/deckpulse/internal/platform/config"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	hub       *hub.Hub
	clock     clockwork.Clock
	limits    *ConnectionLimits
	upgrader  websocket.Upgrader
	startTime time.Time
}

func NewServer(cfg *config.Config, h *hub.Hub, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(correlationMiddleware)
	e.Use(apperr.Middleware())

	limits := NewConnectionLimits(
		int64(cfg.MaxConnections),
		cfg.MaxConnectionsPerIP,
		cfg.ConnectRatePerIP,
		cfg.ConnectBurstPerIP,
	)

	srv := &Server{
		echo:   e,
		config: cfg,
		hub:    h,
		clock:  clock,
		limits: limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     NewCheckOrigin(splitOrigins(cfg.AllowedOrigins), cfg.AppEnv == "development"),
		},
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
