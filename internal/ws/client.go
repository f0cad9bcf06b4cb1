package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/PandaDev0069/TUIZ-sub003/internal/game"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	readLimit    = 65536
	sendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// inbound is the websocket envelope for client commands.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is a single websocket connection. Its ID is the transient
// connection identity; the engine maps it to stable player/host
// identities.
type Client struct {
	ID     string
	hub    *Hub
	engine *game.Engine
	conn   *websocket.Conn
	send   chan Message
	logger *zap.Logger

	// code is the room this connection currently belongs to; owned by
	// the hub's lock.
	code string
}

// ServeWS upgrades the request and runs the client loops.
func ServeWS(hub *Hub, engine *game.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			hub:    hub,
			engine: engine,
			conn:   conn,
			send:   make(chan Message, sendBuffer),
			logger: logger,
		}
		hub.addConn(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) enqueue(msg Message) {
	select {
	case c.send <- msg:
	default:
		// slow consumer, drop rather than stall the room
	}
}

func (c *Client) readPump() {
	defer func() {
		code := c.currentCode()
		if code != "" {
			c.engine.HandleDisconnect(code, c.ID)
		}
		c.hub.removeConn(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.dispatch(msg)
	}
}

// dispatch routes one inbound command into the engine. Malformed
// payloads are dropped; the engine treats every command as rejectable.
func (c *Client) dispatch(msg inbound) {
	switch msg.Event {
	case "join":
		var req struct {
			Code  string `json:"code"`
			Name  string `json:"name"`
			Token string `json:"token"`
		}
		if json.Unmarshal(msg.Data, &req) != nil || req.Code == "" || req.Name == "" {
			return
		}
		joined, err := c.engine.Join(req.Code, req.Name, req.Token, c.ID)
		if err != nil {
			c.enqueue(Message{Event: "joinRejected", Data: map[string]string{"reason": err.Error()}})
			return
		}
		c.enqueue(Message{Event: "joined", Data: joined})

	case "hostJoin":
		var req struct {
			Code    string `json:"code"`
			HostKey string `json:"host_key"`
		}
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		if err := c.engine.BindHost(req.Code, req.HostKey, c.ID); err != nil {
			c.enqueue(Message{Event: "joinRejected", Data: map[string]string{"reason": err.Error()}})
			return
		}
		c.enqueue(Message{Event: "hostJoined", Data: map[string]string{"code": req.Code}})

	case "startGame":
		c.engine.StartGame(c.currentCode(), c.ID)

	case "submitAnswer":
		var req struct {
			QuestionID uint `json:"question_id"`
			Option     int  `json:"option"`
		}
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		c.engine.SubmitAnswer(c.currentCode(), c.ID, req.QuestionID, req.Option)

	case "hostNext":
		c.engine.HostNext(c.currentCode(), c.ID)

	case "hostEndGame":
		c.engine.HostEndGame(c.currentCode(), c.ID)

	case "restoreSession":
		var req game.RestoreRequest
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		req.ConnID = c.ID
		c.engine.RestoreSession(req)

	default:
		c.logger.Debug("unknown ws event", zap.String("event", msg.Event))
	}
}

func (c *Client) currentCode() string {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.code
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
