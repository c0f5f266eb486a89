package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"netsentry/internal/models"
)

// WebSocketMessage is the envelope sent over the live feed
type WebSocketMessage struct {
	Type      string          `json:"type"` // "anomaly", "ping", "error"
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ClientConnection represents one connected WebSocket consumer
type ClientConnection struct {
	ID   string
	Conn *websocket.Conn
	Send chan WebSocketMessage
}

// WebSocketHub fan-outs newly persisted anomaly events to all connected
// clients. Slow clients get messages dropped, never block the hub.
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	mu         sync.RWMutex
	done       chan struct{}
}

var wsHub *WebSocketHub

// InitWebSocketHub initializes the hub and starts its event loop
func InitWebSocketHub() *WebSocketHub {
	wsHub = &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan struct{}),
	}
	go wsHub.run()
	return wsHub
}

// GetWebSocketHub returns the initialized hub
func GetWebSocketHub() *WebSocketHub {
	return wsHub
}

func (h *WebSocketHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] client connected: %s (total: %d)", client.ID, total)

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WS] client disconnected: %s (total: %d)", clientID, total)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *WebSocketHub) Register(client *ClientConnection) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	h.unregister <- clientID
}

// BroadcastDetection pushes a freshly persisted anomaly to every client
func (h *WebSocketHub) BroadcastDetection(det models.Detection) {
	data, err := json.Marshal(det)
	if err != nil {
		log.Printf("[WS] error marshaling detection: %v", err)
		return
	}
	msg := WebSocketMessage{
		Type:      "anomaly",
		Timestamp: time.Now(),
		Data:      json.RawMessage(data),
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Println("[WS] broadcast queue full, dropping anomaly message")
	}
}

// Shutdown stops the hub loop and disconnects all clients
func (h *WebSocketHub) Shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
		delete(h.clients, id)
	}
}
