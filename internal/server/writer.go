package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/deckpulse/internal/metrics"
)

const (
	writeDeadline    = 5 * time.Second
	pingInterval     = 30 * time.Second
	pongDeadline     = 60 * time.Second
	idleTimeout      = 5 * time.Minute
	idleWarningAfter = 4 * time.Minute
	sendBufferSize   = 16
)

// clientWriter owns all writes to one WebSocket connection. Messages
// are queued through trySend and written by a single goroutine, which
// also handles pings and idle detection.
type clientWriter struct {
	conn     *websocket.Conn
	clock    clockwork.Clock
	sendCh   chan []byte
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.Mutex
	lastActivity time.Time
	warned       bool
}

func newClientWriter(conn *websocket.Conn, clock clockwork.Clock) *clientWriter {
	cw := &clientWriter{
		conn:         conn,
		clock:        clock,
		sendCh:       make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
		lastActivity: clock.Now(),
	}
	cw.extendReadDeadline()
	cw.conn.SetPongHandler(func(string) error {
		cw.extendReadDeadline()
		cw.recordActivity()
		return nil
	})
	cw.wg.Add(1)
	go cw.run()
	return cw
}

// trySend queues msg without blocking. A false return means the client
// cannot keep up and should be evicted.
func (cw *clientWriter) trySend(msg []byte) bool {
	select {
	case cw.sendCh <- msg:
		return true
	default:
		return false
	}
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			start := cw.clock.Now()
			cw.extendWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			metrics.WebSocketMessageSendDuration.Observe(cw.clock.Since(start).Seconds())
		case <-ticker.Chan():
			if cw.idleExpired() {
				metrics.WebSocketIdleDisconnects.Inc()
				_ = cw.conn.Close()
				return
			}
			cw.extendWriteDeadline()
			if err := cw.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WebSocketPingFailures.Inc()
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.done)
		_ = cw.conn.Close()
	})
	cw.wg.Wait()
}

// stopGraceful sends a close frame with the given code and reason
// before closing. The run goroutine must exit first so the close frame
// is the only write in flight.
func (cw *clientWriter) stopGraceful(code int, reason string) {
	cw.stopOnce.Do(func() {
		close(cw.done)
		cw.wg.Wait()

		msg := websocket.FormatCloseMessage(code, reason)
		cw.extendWriteDeadline()
		_ = cw.conn.WriteMessage(websocket.CloseMessage, msg)
		_ = cw.conn.Close()
	})
}

// recordActivity resets the idle clock. Called on pongs and on every
// inbound message.
func (cw *clientWriter) recordActivity() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.lastActivity = cw.clock.Now()
	cw.warned = false
}

// idleExpired reports whether the connection has been idle beyond the
// timeout. Approaching the timeout, it sends the client a one-shot warning.
func (cw *clientWriter) idleExpired() bool {
	cw.mu.Lock()
	idle := cw.clock.Since(cw.lastActivity)
	warned := cw.warned
	cw.mu.Unlock()

	if idle >= idleTimeout {
		return true
	}

	if !warned && idle >= idleWarningAfter {
		warning := []byte(`{"type":"warning","message":"connection idle, disconnecting soon"}`)
		cw.extendWriteDeadline()
		if err := cw.conn.WriteMessage(websocket.TextMessage, warning); err == nil {
			cw.mu.Lock()
			cw.warned = true
			cw.mu.Unlock()
		}
	}

	return false
}

func (cw *clientWriter) extendWriteDeadline() {
	_ = cw.conn.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}

func (cw *clientWriter) extendReadDeadline() {
	_ = cw.conn.SetReadDeadline(cw.clock.Now().Add(pongDeadline))
}
