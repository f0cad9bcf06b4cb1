package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Message is the websocket envelope for outbound events.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Publisher pushes room events to other instances (Redis pub/sub).
type Publisher interface {
	PublishRoomEvent(origin, code, event string, payload []byte) error
}

// Subscriber receives room events published by other instances.
type Subscriber interface {
	SubscribeRoom(code string, handler func(origin, event string, payload []byte)) (cancel func(), err error)
}

// Hub tracks connections per game room and implements the engine's
// Broadcaster. Cross-instance fanout through Redis is optional: when a
// publisher/subscriber pair is set, room events also travel the pub/sub
// channel, and events originating elsewhere are replayed locally.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*Client
	conns  map[string]*Client
	subs   map[string]func()
	origin string
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

func NewHub(origin string, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		conns:  make(map[string]*Client),
		subs:   make(map[string]func()),
		origin: origin,
		logger: logger,
	}
}

// SetPubSub wires the optional cross-instance bridge.
func (h *Hub) SetPubSub(pub Publisher, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pub = pub
	h.sub = sub
}

func (h *Hub) addConn(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

func (h *Hub) removeConn(c *Client) {
	h.mu.Lock()
	delete(h.conns, c.ID)
	code := c.code
	if code != "" {
		h.leaveRoomLocked(code, c.ID)
	}
	h.mu.Unlock()
}

// JoinRoom places a connection into a game room, subscribing to the
// room's pub/sub channel when this is the first local member.
func (h *Hub) JoinRoom(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	if c.code != "" && c.code != code {
		h.leaveRoomLocked(c.code, connID)
	}
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeRoom(code, func(origin, event string, payload []byte) {
				if origin == h.origin {
					return
				}
				h.emitLocal(code, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("room subscribe failed", zap.String("code", code), zap.Error(err))
			} else {
				h.subs[code] = cancel
			}
		}
	}
	h.rooms[code][connID] = c
	c.code = code
	h.logger.Debug("client joined room",
		zap.String("conn", connID),
		zap.String("code", code),
		zap.Int("members", len(h.rooms[code])))
}

// LeaveRoom drops a connection from a room, cancelling the pub/sub
// subscription when the last local member leaves.
func (h *Hub) LeaveRoom(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(code, connID)
}

func (h *Hub) leaveRoomLocked(code, connID string) {
	room, ok := h.rooms[code]
	if !ok {
		return
	}
	if c, ok := room[connID]; ok && c.code == code {
		c.code = ""
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, code)
		if cancel, ok := h.subs[code]; ok {
			cancel()
			delete(h.subs, code)
		}
	}
}

// EmitToRoom fans an event out to every local room member and, when
// pub/sub is wired, to the other instances.
func (h *Hub) EmitToRoom(code, event string, payload interface{}) {
	h.emitLocal(code, event, payload)
	if h.pub != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		if err := h.pub.PublishRoomEvent(h.origin, code, event, data); err != nil {
			h.logger.Warn("publish room event failed", zap.String("code", code), zap.Error(err))
		}
	}
}

func (h *Hub) emitLocal(code, event string, payload interface{}) {
	msg := Message{Event: event, Data: payload}
	h.mu.RLock()
	room := h.rooms[code]
	clients := make([]*Client, 0, len(room))
	for _, c := range room {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(msg)
	}
}

// EmitToConn unicasts an event to one connection.
func (h *Hub) EmitToConn(connID, event string, payload interface{}) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.enqueue(Message{Event: event, Data: payload})
}

// EmitToAll sends an event to every connected client (operator
// notices, shutdown warnings).
func (h *Hub) EmitToAll(event string, payload interface{}) {
	msg := Message{Event: event, Data: payload}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conns))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(msg)
	}
}

// RoomSize returns the number of local connections in a room.
func (h *Hub) RoomSize(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}
