// Package websocket pushes application events to connected admin sessions.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/anangai/civic-portal-backend/internal/app/model"
	"github.com/anangai/civic-portal-backend/pkg/logger"
)

// sendBuffer is how many events a slow client may lag before it is dropped
const sendBuffer = 64

// Client is one admin websocket session
type Client struct {
	Hub  *Hub
	Conn *Conn
	Send chan []byte
}

func NewClient(hub *Hub, conn *Conn) *Client {
	return &Client{Hub: hub, Conn: conn, Send: make(chan []byte, sendBuffer)}
}

// Hub fans events out to every registered client.
type Hub struct {
	clients map[*Client]bool

	register  chan *Client
	broadcast chan []byte

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		register:  make(chan *Client, 16),
		broadcast: make(chan []byte, 256),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client's Send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("Admin feed client registered", map[string]interface{}{
				"clients": total,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				logger.Warn("Admin feed client too slow, disconnecting", nil)
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	logger.Info("Admin feed client unregistered", map[string]interface{}{
		"clients": len(h.clients),
	})
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister is safe to call more than once and after Run has returned.
func (h *Hub) Unregister(client *Client) {
	h.remove(client)
}

// ClientCount is the number of connected sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues an event for every client. It never blocks; when the queue
// is full the event is dropped.
func (h *Hub) Publish(event model.ApplicationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal application event", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type":           event.Type,
			"application_id": event.ApplicationID,
		})
	}
}
