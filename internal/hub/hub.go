// Package hub broadcasts analysis output to connected websocket viewers.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans analysis messages out to every connected client.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *slog.Logger
}

// New returns a Hub ready to Run.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

// Run services the hub channels until the process exits.  Call in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("viewer connected", slog.Int("total", total))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("viewer disconnected", slog.Int("total", total))

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warn("dropping viewer", slog.Any("error", err))
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a client connection.
func (h *Hub) Register(client *websocket.Conn) {
	h.register <- client
}

// Unregister removes a client connection.
func (h *Hub) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// Send broadcasts a typed JSON message to all clients.  Marshal failures
// are logged and dropped, a bad payload must not stall the pipeline.
func (h *Hub) Send(kind string, payload any) {

	msg, err := json.Marshal(map[string]any{
		"type": kind,
		"data": payload,
	})
	if err != nil {
		h.logger.Error("failed to encode broadcast", slog.Any("error", err))
		return
	}

	h.broadcast <- msg
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
