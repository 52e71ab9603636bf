package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/deckpulse/internal/domain"
	"github.com/pscheid92/deckpulse/internal/hub"
	"github.com/pscheid92/deckpulse/internal/platform/config"
)

func newTestConfig() *config.Config {
	return &config.Config{
		AppEnv:              "development",
		Port:                "0",
		LogLevel:            "info",
		LogFormat:           "text",
		VoteQueueCapacity:   256,
		VoteBatchSize:       100,
		VoteBatchWindow:     50 * time.Millisecond,
		StreamBuffer:        128,
		MaxConnections:      100,
		MaxConnectionsPerIP: 100,
		ConnectRatePerIP:    1000,
		ConnectBurstPerIP:   1000,
	}
}

func startTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *hub.Hub) {
	t.Helper()

	h := hub.New(hub.Config{
		QueueCapacity: cfg.VoteQueueCapacity,
		BatchSize:     cfg.VoteBatchSize,
		BatchWindow:   cfg.VoteBatchWindow,
		StreamBuffer:  cfg.StreamBuffer,
	}, clockwork.NewRealClock())
	t.Cleanup(h.Stop)

	srv := NewServer(cfg, h, clockwork.NewRealClock())
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	return ts, h
}

func dialSocket(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + path
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// wireMessage covers every outbound frame shape for test assertions.
type wireMessage struct {
	Type       string             `json:"type"`
	Slide      *domain.SlideState `json:"slide,omitempty"`
	Questions  []domain.Question  `json:"questions,omitempty"`
	Population *int               `json:"population,omitempty"`
	Votes      []domain.CastVote  `json:"votes,omitempty"`
	Message    string             `json:"message,omitempty"`
}

// readMessageOfType discards frames until one of the wanted type arrives.
func readMessageOfType(t *testing.T, conn *websocket.Conn, wantType string) wireMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q frame", wantType)

		var msg wireMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == wantType {
			return msg
		}
	}
}

// readInitialState collects the three seed frames a fresh socket receives,
// keeping the first frame of each type.
func readInitialState(t *testing.T, conn *websocket.Conn) map[string]wireMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	got := make(map[string]wireMessage)
	for len(got) < 3 {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for initial state")

		var msg wireMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if _, seen := got[msg.Type]; !seen {
			got[msg.Type] = msg
		}
	}
	return got
}

func sendJSON(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()

	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}
