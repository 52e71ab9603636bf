package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/deckpulse/internal/domain"
	"github.com/pscheid92/deckpulse/internal/fanout"
	"github.com/pscheid92/deckpulse/internal/metrics"
)

type socketRole int

const (
	roleViewer socketRole = iota
	rolePresenter
)

func (r socketRole) String() string {
	if r == rolePresenter {
		return "presenter"
	}
	return "viewer"
}

// handleViewerSocket serves audience connections. Viewers receive the
// state streams and may ask questions and cast votes.
func (s *Server) handleViewerSocket(c echo.Context) error {
	return s.serveSocket(c, roleViewer)
}

// handlePresenterSocket serves the speaker's connection. It receives
// vote batches on top of the state streams and may drive the deck.
func (s *Server) handlePresenterSocket(c echo.Context) error {
	return s.serveSocket(c, rolePresenter)
}

func (s *Server) serveSocket(c echo.Context, role socketRole) error {
	ip := c.RealIP()

	ok, reason := s.limits.Acquire(ip)
	if !ok {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		metrics.WebSocketConnectionsTotal.WithLabelValues("rejected").Inc()
		status := http.StatusTooManyRequests
		if reason == LimitReasonGlobal {
			status = http.StatusServiceUnavailable
		}
		return echo.NewHTTPError(status, "connection limit reached")
	}
	defer s.limits.Release(ip)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		metrics.WebSocketConnectionsTotal.WithLabelValues("upgrade_failed").Inc()
		slog.Warn("WebSocket upgrade failed", "error", err, "remote_ip", ip)
		return nil
	}

	metrics.WebSocketConnectionsTotal.WithLabelValues("accepted").Inc()
	metrics.WebSocketConnectionsCurrent.Inc()
	defer metrics.WebSocketConnectionsCurrent.Dec()

	ctx := c.Request().Context()
	userID := domain.UserID(uuid.NewString())
	slog.InfoContext(ctx, "Client connected", "role", role.String(), "user_id", string(userID), "remote_ip", ip)

	// Only the audience counts toward the population.
	if role == roleViewer {
		s.hub.UserJoined()
		defer s.hub.UserLeft()
	}

	cw := newClientWriter(conn, s.clock)
	defer cw.stop()

	subs := s.subscribeClient(role)
	defer subs.close()

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.pumpClient(ctx, cw, subs)
	}()

	s.readLoop(ctx, conn, cw, userID, role)

	cw.stop()
	subs.close()
	<-pumpDone

	slog.InfoContext(ctx, "Client disconnected", "role", role.String(), "user_id", string(userID))
	return nil
}

// clientSubs bundles one client's hub subscriptions. votes is nil for
// viewers.
type clientSubs struct {
	slides     *fanout.Subscription[domain.SlideState]
	questions  *fanout.Subscription[domain.QuestionState]
	population *fanout.Subscription[domain.Population]
	votes      *fanout.Subscription[[]domain.CastVote]
}

func (s *Server) subscribeClient(role socketRole) *clientSubs {
	subs := &clientSubs{
		slides:     s.hub.SlideStates(),
		questions:  s.hub.Questions(),
		population: s.hub.Population(),
	}
	if role == rolePresenter {
		subs.votes = s.hub.VoteBatches()
	}
	return subs
}

func (cs *clientSubs) close() {
	cs.slides.Close()
	cs.questions.Close()
	cs.population.Close()
	if cs.votes != nil {
		cs.votes.Close()
	}
}

// pumpClient forwards hub streams to one client until a stream ends or
// the client falls behind.
func (s *Server) pumpClient(ctx context.Context, cw *clientWriter, subs *clientSubs) {
	var votesC <-chan []domain.CastVote
	if subs.votes != nil {
		votesC = subs.votes.C()
	}

	for {
		var (
			msg []byte
			err error
		)

		select {
		case v, ok := <-subs.slides.C():
			if !ok {
				cw.stopGraceful(websocket.CloseGoingAway, "server shutting down")
				return
			}
			msg, err = encodeSlide(v)
		case v, ok := <-subs.questions.C():
			if !ok {
				cw.stopGraceful(websocket.CloseGoingAway, "server shutting down")
				return
			}
			msg, err = encodeQuestions(v)
		case v, ok := <-subs.population.C():
			if !ok {
				cw.stopGraceful(websocket.CloseGoingAway, "server shutting down")
				return
			}
			msg, err = encodePopulation(v)
		case v, ok := <-votesC:
			if !ok {
				if errors.Is(subs.votes.Err(), fanout.ErrSubscriberOverflow) {
					slog.WarnContext(ctx, "Vote stream overflowed, closing connection")
					cw.stopGraceful(websocket.ClosePolicyViolation, "vote stream overflow")
					return
				}
				cw.stopGraceful(websocket.CloseGoingAway, "server shutting down")
				return
			}
			msg, err = encodeVotes(v)
		}

		if err != nil {
			slog.ErrorContext(ctx, "Failed to encode message", "error", err)
			continue
		}

		if !cw.trySend(msg) {
			metrics.WebSocketSlowClientsEvicted.Inc()
			slog.WarnContext(ctx, "Evicting slow client")
			cw.stop()
			return
		}
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, cw *clientWriter, userID domain.UserID, role socketRole) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.DebugContext(ctx, "Read loop ended", "error", err)
			}
			return
		}
		cw.recordActivity()
		s.dispatchInbound(ctx, userID, role, data)
	}
}

// dispatchInbound interprets one client message. Malformed or
// unauthorized input is logged and dropped; the connection stays up.
func (s *Server) dispatchInbound(ctx context.Context, userID domain.UserID, role socketRole, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.DebugContext(ctx, "Dropping malformed message", "error", err)
		return
	}

	switch msg.Type {
	case msgTypeAsk:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			slog.DebugContext(ctx, "Dropping empty question")
			return
		}
		s.hub.ApplyUser(ctx, userID, domain.AskQuestion{Text: text, Slide: msg.Slide})
	case msgTypeVote:
		if msg.Topic == "" || msg.Choice == "" {
			slog.DebugContext(ctx, "Dropping incomplete vote")
			return
		}
		s.hub.ApplyUser(ctx, userID, domain.SendVote{Topic: msg.Topic, Choice: msg.Choice})
	case msgTypeNextSlide, msgTypePrevSlide, msgTypeNextStep, msgTypePrevStep, msgTypeToggleQuestion:
		if role != rolePresenter {
			slog.WarnContext(ctx, "Dropping admin command from viewer", "type", msg.Type)
			return
		}
		s.hub.ApplyAdmin(ctx, adminCommandFor(msg))
	default:
		slog.DebugContext(ctx, "Dropping message of unknown type", "type", msg.Type)
	}
}

func adminCommandFor(msg inboundMessage) domain.AdminCommand {
	switch msg.Type {
	case msgTypeNextSlide:
		return domain.NextSlide{}
	case msgTypePrevSlide:
		return domain.PrevSlide{}
	case msgTypeNextStep:
		return domain.NextStep{}
	case msgTypePrevStep:
		return domain.PrevStep{}
	default:
		return domain.ToggleQuestion{ID: domain.QuestionID(msg.ID)}
	}
}
