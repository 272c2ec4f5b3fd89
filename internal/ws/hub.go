// Package ws pushes live dashboard updates to connected clients, grouped
// by branch so cross-branch visibility is never implicit.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"asset-service/internal/logging"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API layer enforces origin policy; the hub accepts what it passes.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected clients per branch and broadcasts JSON payloads.
type Hub struct {
	mu      sync.Mutex
	clients map[int64]map[*client]struct{}
	logger  *logging.Logger
}

// NewHub constructs an empty Hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*client]struct{}),
		logger:  logger,
	}
}

// Serve upgrades the request and registers the connection under the
// branch until it disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, branchID int64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.mu.Lock()
	if h.clients[branchID] == nil {
		h.clients[branchID] = make(map[*client]struct{})
	}
	h.clients[branchID][c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(branchID, c)
	go h.readLoop(branchID, c)
	return nil
}

// Broadcast sends the payload to every client of the branch. Slow clients
// are dropped rather than allowed to stall the rest.
func (h *Hub) Broadcast(branchID int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorf("Failed to marshal broadcast payload: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[branchID] {
		select {
		case c.send <- data:
		default:
			h.dropLocked(branchID, c)
		}
	}
}

func (h *Hub) writeLoop(branchID int64, c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(branchID, c)
			return
		}
	}
}

// readLoop discards inbound frames; it exists to detect disconnects.
func (h *Hub) readLoop(branchID int64, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(branchID, c)
			return
		}
	}
}

func (h *Hub) remove(branchID int64, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(branchID, c)
}

func (h *Hub) dropLocked(branchID int64, c *client) {
	if clients, ok := h.clients[branchID]; ok {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
		}
	}
}
