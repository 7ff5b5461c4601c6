// SPDX-License-Identifier: MIT

// Package devserver runs the local development HTTP server: it serves the
// build output directory, exposes health and metrics endpoints and pushes
// hot-update notifications to connected browsers over a websocket.
package devserver

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/metrics"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second

	// pongWait is how long a client may stay silent before the read side
	// gives up on the connection.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings arrive in time.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; clients only ever send control
	// traffic.
	maxMessageSize = 512

	// sendBuffer is the per-client outbound queue. Clients that fall
	// behind by more than this are dropped.
	sendBuffer = 8
)

// Message is a notification pushed to connected clients.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// Hub fans update notifications out to websocket clients. All client
// bookkeeping happens on the Run goroutine; handlers and broadcasters only
// exchange messages over channels, guarded by quit so they never block after
// shutdown.
type Hub struct {
	logger     zerolog.Logger
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	quit       chan struct{}
	clients    map[*client]bool
	count      atomic.Int64
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The server binds to localhost for development; pages served
			// from any origin may subscribe to updates.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 16),
		quit:       make(chan struct{}),
		clients:    make(map[*client]bool),
	}
}

// Run owns the client set until ctx is cancelled. On shutdown it closes all
// client send channels, which makes their write pumps send a close frame and
// tear the connections down.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.quit)
			for c := range h.clients {
				close(c.send)
				metrics.WSClientDisconnected()
			}
			h.clients = make(map[*client]bool)
			h.count.Store(0)
			h.logger.Debug().
				Str("event", "devserver.hub_stopped").
				Msg("websocket hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			metrics.WSClientConnected()
			h.logger.Debug().
				Str("event", "devserver.client_connected").
				Str("client", c.id).
				Int("clients", len(h.clients)).
				Msg("websocket client connected")

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.logger.Debug().
					Str("event", "devserver.client_disconnected").
					Str("client", c.id).
					Int("clients", len(h.clients)).
					Msg("websocket client disconnected")
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.drop(c)
					h.logger.Warn().
						Str("event", "devserver.client_dropped").
						Str("client", c.id).
						Msg("dropping slow websocket client")
				}
			}
		}
	}
}

// drop must only be called from the Run goroutine.
func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
	metrics.WSClientDisconnected()
}

// BroadcastUpdate notifies clients that the module with the given specifier
// has fresh contents.
func (h *Hub) BroadcastUpdate(id string) {
	h.enqueue(Message{Type: "update", ID: id})
}

// BroadcastReload asks clients to perform a full page reload.
func (h *Hub) BroadcastReload() {
	h.enqueue(Message{Type: "reload"})
}

func (h *Hub) enqueue(msg Message) {
	select {
	case h.broadcast <- msg:
	case <-h.quit:
	}
}

// Clients reports how many websocket clients are currently connected.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// ServeHTTP upgrades the request to a websocket connection and registers it
// with the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("event", "devserver.upgrade_failed").
			Msg("websocket upgrade failed")
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan Message, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.quit:
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel; say goodbye properly.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
