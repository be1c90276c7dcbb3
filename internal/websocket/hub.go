package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/storefront-service/internal/events"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeEvent     MessageType = "event"
	MessageTypeConnected MessageType = "connected"
	MessageTypePong      MessageType = "pong"
	MessageTypeError     MessageType = "error"
)

// OutgoingMessage represents a message sent to clients
type OutgoingMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// IncomingMessage represents a message received from clients
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ErrorData represents error message data
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Hub fans domain events out to the connected admin live feed clients
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	done       chan struct{}

	mu     sync.RWMutex
	logger *logrus.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case <-h.shutdown:
			h.closeAllClients()
			return
		}
	}
}

// Shutdown stops the loop and disconnects every client
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.shutdown:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.shutdown:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.logger.WithFields(logrus.Fields{
		"client_id": client.ID,
		"admin_id":  client.AdminID,
	}).Info("Live feed client registered")

	client.SendMessage(&OutgoingMessage{
		Type: MessageTypeConnected,
		Data: map[string]interface{}{
			"clientID": client.ID,
			"message":  "Connected to order feed",
		},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.send)
		h.logger.WithField("client_id", client.ID).Info("Live feed client unregistered")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
}

// Broadcast pushes an event to every connected client
func (h *Hub) Broadcast(event *events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	message := &OutgoingMessage{
		Type: MessageTypeEvent,
		Data: event,
	}
	for _, client := range h.clients {
		client.SendMessage(message)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PingAllClients sends an application level heartbeat
func (h *Hub) PingAllClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	message := &OutgoingMessage{
		Type: MessageTypePong,
		Data: map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	for _, client := range h.clients {
		client.SendMessage(message)
	}
}
