package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a WebSocket connection the hub writes to.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a connected WebSocket client.
type Client struct {
	ID       string
	Username string
	RoomID   string
	Conn     Conn

	writeMu sync.Mutex
}

// Send writes a text frame. Writes to one connection are serialized.
func (c *Client) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Envelope is the frame sent to clients.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub manages WebSocket connections and room fan-out.
type Hub struct {
	clients    map[string]*Client         // clientID -> Client
	rooms      map[string]map[string]bool // roomID -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
}

// BroadcastMessage is a message for some or all clients of a room.
type BroadcastMessage struct {
	RoomID  string
	Type    string
	Payload json.RawMessage
	// To limits delivery to these usernames; empty means everyone.
	To      []string
	Exclude string
	// Close detaches the recipients from the room after delivery.
	Close bool
}

func (m *BroadcastMessage) addressed(username string) bool {
	if username == m.Exclude {
		return false
	}
	return len(m.To) == 0 || slices.Contains(m.To, username)
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if client.RoomID != "" {
		h.addToRoom(client.RoomID, client.ID)
	}
	log.Printf("[hub] Client %s (%s) registered", client.ID, client.Username)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		if client.RoomID != "" {
			h.removeFromRoom(client.RoomID, client.ID)
		}
		log.Printf("[hub] Client %s (%s) unregistered", client.ID, client.Username)
	}
}

func (h *Hub) handleBroadcast(msg *BroadcastMessage) {
	data, err := json.Marshal(Envelope{Type: msg.Type, Payload: msg.Payload})
	if err != nil {
		log.Printf("[hub] Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for clientID := range h.rooms[msg.RoomID] {
		client, ok := h.clients[clientID]
		if !ok || !msg.addressed(client.Username) {
			continue
		}
		h.sendToClient(client, data)
		if msg.Close {
			h.removeFromRoom(msg.RoomID, clientID)
			client.RoomID = ""
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Send(data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

// addToRoom and removeFromRoom require h.mu held for writing.
func (h *Hub) addToRoom(roomID, clientID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][clientID] = true
}

func (h *Hub) removeFromRoom(roomID, clientID string) {
	if h.rooms[roomID] == nil {
		return
	}
	delete(h.rooms[roomID], clientID)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a message for delivery to a room.
func (h *Hub) Broadcast(msg *BroadcastMessage) {
	h.broadcast <- msg
}

// SendTo writes a message straight to one client.
func (h *Hub) SendTo(client *Client, msgType string, payload any) error {
	env := Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = data
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return client.Send(data)
}

// JoinRoom moves a client to a specific room.
func (h *Hub) JoinRoom(clientID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	if client.RoomID != "" {
		h.removeFromRoom(client.RoomID, clientID)
	}
	client.RoomID = roomID
	h.addToRoom(roomID, clientID)
	log.Printf("[hub] Client %s joined room %s", clientID, roomID)
}

// LeaveRoom removes a client from their current room.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok || client.RoomID == "" {
		return
	}

	h.removeFromRoom(client.RoomID, clientID)
	log.Printf("[hub] Client %s left room %s", clientID, client.RoomID)
	client.RoomID = ""
}

// CurrentRoom returns the room a client is attached to, or "".
func (h *Hub) CurrentRoom(clientID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[clientID]; ok {
		return client.RoomID
	}
	return ""
}

// GetClient returns a client by ID.
func (h *Hub) GetClient(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[clientID]
}

// GetRoomClients returns all clients in a room.
func (h *Hub) GetRoomClients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var clients []*Client
	for clientID := range h.rooms[roomID] {
		if client, ok := h.clients[clientID]; ok {
			clients = append(clients, client)
		}
	}
	return clients
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
