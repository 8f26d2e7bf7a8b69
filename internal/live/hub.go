// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package live pushes builder state to editor clients over WebSocket. All
// clients of a session share one builder subscription; every change is
// sent to each of them as a full view.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"landingkit/internal/builder"
)

const (
	// sendBuffer is how many pending messages a client may fall behind
	// before it is dropped.
	sendBuffer = 16

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is the envelope sent to clients.
type Message struct {
	Type string        `json:"type"` // "state" or "closed"
	View *builder.View `json:"view,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // editors are served from the CRM's own origin
	},
}

// Hub tracks the WebSocket clients of every session.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	unsubscribe func()
	clients     map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// Serve upgrades the request and streams the session's views to the client
// until it disconnects or the session closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string, b *builder.Builder) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.join(sessionID, b, c)

	go c.writePump()
	c.readPump()
	h.leave(sessionID, c)
}

// Clients returns the number of connected clients of a session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rm, ok := h.rooms[sessionID]; ok {
		return len(rm.clients)
	}
	return 0
}

// CloseSession disconnects every client of a session.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	delete(h.rooms, sessionID)

	rm.unsubscribe()
	data, _ := json.Marshal(Message{Type: "closed"})
	for c := range rm.clients {
		select {
		case c.send <- data:
		default:
		}
		c.close()
	}
	slog.Debug("live session closed", "session_id", sessionID, "clients", len(rm.clients))
}

// Shutdown disconnects every client of every session.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.CloseSession(id)
	}
}

func (h *Hub) join(sessionID string, b *builder.Builder, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[sessionID]
	if !ok {
		rm = &room{clients: make(map[*client]struct{})}
		rm.unsubscribe = b.Subscribe(func(v builder.View) { h.broadcast(sessionID, v) })
		h.rooms[sessionID] = rm
	}
	rm.clients[c] = struct{}{}

	// Sent under the hub lock so no broadcast can overtake it.
	v := b.View()
	if data, err := json.Marshal(Message{Type: "state", View: &v}); err == nil {
		c.send <- data
	}
	slog.Debug("live client joined", "session_id", sessionID, "clients", len(rm.clients))
}

func (h *Hub) leave(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.close()
	rm, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	delete(rm.clients, c)
	if len(rm.clients) == 0 {
		rm.unsubscribe()
		delete(h.rooms, sessionID)
	}
}

func (h *Hub) broadcast(sessionID string, v builder.View) {
	data, err := json.Marshal(Message{Type: "state", View: &v})
	if err != nil {
		slog.Error("live view marshal failed", "session_id", sessionID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	for c := range rm.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("live client too slow, dropping", "session_id", sessionID)
			delete(rm.clients, c)
			c.close()
		}
	}
}

// readPump discards client messages and returns when the connection fails.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
