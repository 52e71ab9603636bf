package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/deckpulse/internal/hub"
	"github.com/pscheid92/deckpulse/internal/metrics"
	"github.com/pscheid92/deckpulse/internal/platform/config"
	"github.com/pscheid92/deckpulse/internal/platform/logging"
	"github.com/pscheid92/deckpulse/internal/platform/version"
	"github.com/pscheid92/deckpulse/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Stopping the hub closes every subscriber stream, which sends
		// close frames to the remaining websocket clients.
		h.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	slog.Info("Application starting", "version", info.String(), "env", cfg.AppEnv, "port", cfg.Port)
	metrics.BuildInfo.WithLabelValues(info.Version, info.Commit, info.BuildTime, info.GoVersion).Set(1)

	h := hub.New(hub.Config{
		QueueCapacity: cfg.VoteQueueCapacity,
		BatchSize:     cfg.VoteBatchSize,
		BatchWindow:   cfg.VoteBatchWindow,
		StreamBuffer:  cfg.StreamBuffer,
	}, clock)

	srv := server.NewServer(cfg, h, clock)

	done := runGracefulShutdown(srv, h)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
