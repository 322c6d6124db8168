package ws

import (
	"encoding/json"
	"runtime/debug"
	"sync"

	"survive/internal/logger"

	"go.uber.org/zap"
)

// Message is the WebSocket envelope format. Acks carry RequestID and Event.
type Message struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Event     string          `json:"event,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// MsgAck is the type of every reply to a client request
const MsgAck = "ack"

// Hub owns every socket and the room groups they belong to
type Hub struct {
	conns map[string]*Connection            // connID -> conn
	rooms map[string]map[string]*Connection // roomID -> connID -> conn

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	bind       chan *Connection
	broadcast  chan *BroadcastMessage
	closeRoom  chan string
	done       chan struct{}
	stopOnce   sync.Once

	log *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	ID   string
	Send chan []byte

	mu         sync.RWMutex
	roomID     string
	playerName string
	sessionID  string
	// group is the room the hub has filed the connection under; hub goroutine only
	group string
}

// NewConnection creates an unbound connection with a send buffer of size buf
func NewConnection(id string, buf int) *Connection {
	return &Connection{
		ID:   id,
		Send: make(chan []byte, buf),
	}
}

// Identity returns the room and player bound to the connection
func (c *Connection) Identity() (roomID, playerName, sessionID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.playerName, c.sessionID
}

func (c *Connection) setIdentity(roomID, playerName, sessionID string) {
	c.mu.Lock()
	c.roomID, c.playerName, c.sessionID = roomID, playerName, sessionID
	c.mu.Unlock()
}

// BroadcastMessage is a message to deliver. ConnID targets one socket, ToPlayer one
// player of the room, otherwise the whole room.
type BroadcastMessage struct {
	RoomID   string
	ToPlayer string
	ConnID   string
	Data     []byte
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		conns:      make(map[string]*Connection),
		rooms:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		bind:       make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		closeRoom:  make(chan string, 16),
		done:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, conn := range h.conns {
				delete(h.conns, id)
				close(conn.Send)
			}
			h.rooms = make(map[string]map[string]*Connection)
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.safely(func() {
				h.mu.Lock()
				h.conns[conn.ID] = conn
				h.mu.Unlock()
				h.log.Debug("connection registered", zap.String("conn_id", conn.ID))
			})

		case conn := <-h.unregister:
			h.safely(func() {
				h.mu.Lock()
				defer h.mu.Unlock()
				if existing, ok := h.conns[conn.ID]; ok && existing == conn {
					delete(h.conns, conn.ID)
					h.leaveGroupLocked(conn)
					close(conn.Send)
					h.log.Debug("connection unregistered", zap.String("conn_id", conn.ID))
				}
			})

		case conn := <-h.bind:
			h.safely(func() {
				h.mu.Lock()
				defer h.mu.Unlock()
				if _, ok := h.conns[conn.ID]; !ok {
					return
				}
				h.leaveGroupLocked(conn)
				roomID, _, _ := conn.Identity()
				if roomID == "" {
					return
				}
				if h.rooms[roomID] == nil {
					h.rooms[roomID] = make(map[string]*Connection)
				}
				h.rooms[roomID][conn.ID] = conn
				conn.group = roomID
			})

		case roomID := <-h.closeRoom:
			h.safely(func() {
				h.mu.Lock()
				defer h.mu.Unlock()
				for id, conn := range h.rooms[roomID] {
					delete(h.conns, id)
					close(conn.Send)
				}
				delete(h.rooms, roomID)
			})

		case msg := <-h.broadcast:
			h.safely(func() {
				h.mu.RLock()
				defer h.mu.RUnlock()
				h.deliverLocked(msg)
			})
		}
	}
}

func (h *Hub) deliverLocked(msg *BroadcastMessage) {
	if msg.ConnID != "" {
		if conn, ok := h.conns[msg.ConnID]; ok {
			h.trySend(conn, msg.Data)
		}
		return
	}
	for _, conn := range h.rooms[msg.RoomID] {
		if msg.ToPlayer != "" {
			if _, name, _ := conn.Identity(); name != msg.ToPlayer {
				continue
			}
		}
		h.trySend(conn, msg.Data)
	}
}

func (h *Hub) trySend(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop message if buffer full
		h.log.Warn("send buffer full, message dropped", zap.String("conn_id", conn.ID))
	}
}

func (h *Hub) leaveGroupLocked(conn *Connection) {
	if conn.group == "" {
		return
	}
	if group, ok := h.rooms[conn.group]; ok {
		delete(group, conn.ID)
		if len(group) == 0 {
			delete(h.rooms, conn.group)
		}
	}
	conn.group = ""
}

func (h *Hub) safely(f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(h.log, r, debug.Stack())
		}
	}()
	f()
}

func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection and closes its send channel
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Bind attaches the connection to a room player; an empty roomID detaches it
func (h *Hub) Bind(conn *Connection, roomID, playerName, sessionID string) {
	conn.setIdentity(roomID, playerName, sessionID)
	select {
	case h.bind <- conn:
	case <-h.done:
	}
}

// Reply sends an ack to one connection
func (h *Hub) Reply(conn *Connection, requestID, event string, payload interface{}) {
	data, err := encode(&Message{Type: MsgAck, RequestID: requestID, Event: event}, payload)
	if err != nil {
		h.log.Error("encode ack failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.enqueue(&BroadcastMessage{ConnID: conn.ID, Data: data})
}

// BroadcastToRoom sends a message to every socket in a room (implements service.Broadcaster)
func (h *Hub) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	data, err := encode(&Message{Type: msgType}, payload)
	if err != nil {
		h.log.Error("encode broadcast failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	logger.LogWebSocketMessage("out", msgType, payload)
	h.enqueue(&BroadcastMessage{RoomID: roomID, Data: data})
}

// BroadcastToPlayer sends a message to the sockets of one player (implements service.Broadcaster)
func (h *Hub) BroadcastToPlayer(roomID, playerName string, msgType string, payload interface{}) {
	data, err := encode(&Message{Type: msgType}, payload)
	if err != nil {
		h.log.Error("encode broadcast failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.enqueue(&BroadcastMessage{RoomID: roomID, ToPlayer: playerName, Data: data})
}

// DisconnectRoom closes every socket of a deleted room (implements service.Broadcaster)
func (h *Hub) DisconnectRoom(roomID string) {
	select {
	case h.closeRoom <- roomID:
	case <-h.done:
	}
}

// Close stops the hub and closes every connection
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ConnectionCount returns the number of registered sockets
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// RoomSize returns the number of sockets bound to a room
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func encode(msg *Message, payload interface{}) ([]byte, error) {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return json.Marshal(msg)
}
