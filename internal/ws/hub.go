package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"rfid-asset-tracker/internal/model"
)

// Hub fans movement events out to every connected WebSocket client.
// Delivery is best-effort: slow clients are disconnected rather than
// allowed to back-pressure the drain loop.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	clientCount atomic.Int64
	done        chan struct{}
	stopOnce    sync.Once
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set; all membership changes and broadcasts go through
// this loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.clientCount.Store(int64(len(h.clients)))
			log.Printf("[Hub] Client %s connected (%d total)", client.id, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.clientCount.Store(int64(len(h.clients)))
				log.Printf("[Hub] Client %s disconnected (%d total)", client.id, len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client can't keep up; drop it.
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.clientCount.Store(int64(len(h.clients)))

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.clientCount.Store(0)
			log.Printf("[Hub] Stopped")
			return
		}
	}
}

// Publish marshals the event and queues it for broadcast. Fire-and-forget:
// if the broadcast buffer is full the event is dropped with a log line.
func (h *Hub) Publish(event model.AssetMovementEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Hub] Failed to marshal event: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		log.Printf("[Hub] Broadcast buffer full, dropping event for tag %s", event.Data.TagID)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int64 {
	return h.clientCount.Load()
}

// Close disconnects all clients and stops the run loop.
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}
