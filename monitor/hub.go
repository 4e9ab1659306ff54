package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single write; a client that does not drain its
// connection within it is dropped.
const writeWait = 2 * time.Second

// Hub broadcasts readings as JSON to every connected websocket client.
type Hub struct {
	upgrader  websocket.Upgrader
	writeWait time.Duration

	// wmx serializes writers; gorilla allows a single writer per connection
	wmx     sync.Mutex
	mx      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeWait: writeWait,
		clients:   map[*websocket.Conn]struct{}{},
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade error", "error", err)
		return
	}
	h.mx.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mx.Unlock()
	slog.Debug("websocket client connected", "remote", r.RemoteAddr, "clients", count)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(conn)
	slog.Debug("websocket client disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mx.Lock()
	defer h.mx.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

// Write sends r to every client; clients that fail or time out are dropped.
func (h *Hub) Write(ctx context.Context, r Reading) error {
	h.wmx.Lock()
	defer h.wmx.Unlock()
	for _, conn := range h.snapshot() {
		if err := conn.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
			h.remove(conn)
			continue
		}
		if err := conn.WriteJSON(r); err != nil {
			slog.Debug("websocket write error", "remote", conn.RemoteAddr(), "error", err)
			h.remove(conn)
		}
	}
	return nil
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mx.Lock()
	defer h.mx.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mx.Lock()
	defer h.mx.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mx.Lock()
	defer h.mx.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
