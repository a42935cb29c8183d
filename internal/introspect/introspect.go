// Package introspect runs an optional, local-only WebSocket stream of
// tool-call events for watching a running episode live. It never reaches
// into worldstate.State directly — the driver pushes a StepEvent over a
// channel, and this package only ever reads from it, preserving the
// single-threaded core invariant (spec.md §5); this is ambient observability
// tooling, not gameplay networking (spec.md §1 Non-goals bars networked
// suppliers/delivery/demand, not a loopback dev viewer).
package introspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	broadcastDepth = 256
)

// StepEvent is one tool-call observation, broadcast verbatim as JSON to
// every connected viewer (spec.md §6 trajectory record shape).
type StepEvent struct {
	Step       int    `json:"step"`
	ToolName   string `json:"tool_name"`
	Result     string `json:"result"`
	NetWorth   string `json:"net_worth"`
	Day        int    `json:"day"`
	Terminated bool   `json:"terminated"`
}

// Hub fans StepEvents out to connected local WebSocket viewers.
type Hub struct {
	clients   map[string]*client
	mu        sync.RWMutex
	broadcast chan []byte
	logger    *slog.Logger
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a Hub with no connected clients.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]*client),
		broadcast: make(chan []byte, broadcastDepth),
		logger:    logger.With("component", "introspect-hub"),
	}
}

// Run drains the broadcast channel and fans messages out to clients. Must
// run in its own goroutine; it never touches simulation state.
func (h *Hub) Run() {
	for msg := range h.broadcast {
		h.mu.RLock()
		for _, c := range h.clients {
			select {
			case c.send <- msg:
			default:
				h.logger.Warn("viewer too slow, dropping event", "client_id", c.id)
			}
		}
		h.mu.RUnlock()
	}
}

// Publish enqueues one StepEvent for broadcast. Never blocks the caller's
// simulation loop: if the broadcast buffer is full, the event is dropped.
func (h *Hub) Publish(ev StepEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal step event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, dropping event")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The Origin header is not checked: every request is accepted,
		// including ones without an Origin (native WebSocket clients and
		// curl-style tools send none).
		return true
	},
}

// ServeHTTP upgrades a connection and registers it as a viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 32)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Info("viewer connected", "client_id", c.id)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump discards inbound messages; the stream is one-way (viewers never
// mutate simulation state).
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		close(c.send)
		h.mu.Unlock()
		c.conn.Close()
		h.logger.Info("viewer disconnected", "client_id", c.id)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
