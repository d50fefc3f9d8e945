// Package ws pushes agent, task, and briefing events to connected
// dashboard clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	// Outbound buffer per connection. A client that stops reading long
	// enough to fill it loses events rather than stalling the
	// broadcaster; every event is reconstructible from the REST API.
	sendBuffer = 32

	writeTimeout = 5 * time.Second
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn is one client connection with its outbound queue.
type conn struct {
	id     string
	send   chan []byte
	cancel context.CancelFunc
}

// Hub fans broadcast events out to every connected client. Writes go
// through per-connection queues so one slow socket never blocks the
// services publishing events.
type Hub struct {
	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*conn]struct{})}
}

// HandleWS upgrades the request and serves the connection until either
// side closes it.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{id: uuid.NewString(), send: make(chan []byte, sendBuffer), cancel: cancel}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "conn_id", c.id, "remote", r.RemoteAddr)

	go h.writeLoop(ctx, c, ws)
	go h.readLoop(ctx, c, ws)
}

// writeLoop drains the connection's send queue onto the socket.
func (h *Hub) writeLoop(ctx context.Context, c *conn, ws *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("websocket write failed", "conn_id", c.id, "error", err)
				h.remove(c)
				return
			}
		}
	}
}

// readLoop consumes inbound frames so pings are answered and the
// disconnect is noticed.
func (h *Hub) readLoop(ctx context.Context, c *conn, ws *websocket.Conn) {
	defer func() {
		h.remove(c)
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}()
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			return
		}
	}
}

// Broadcast queues a message for every connected client. Connections
// with a full send buffer skip this message.
func (h *Hub) Broadcast(_ context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		select {
		case c.send <- data:
		default:
			slog.Debug("dropping event for slow websocket reader", "conn_id", c.id)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "conn_id", c.id)
	}
}
