package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/auth"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the first (auth) message
	authWait = 10 * time.Second

	maxMessageSize = 8192

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection. Documents are sent in the client's
// subscribed format.
type Client struct {
	id     uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	mu            sync.Mutex
	closed        bool
	format        string
	authenticated bool
	permissions   []auth.Permission
}

func (c *Client) Format() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// enqueue reports false when the send buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	c.enqueue(data)
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	// The write pump flushes queued replies and closes the connection once
	// send is closed.
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	requireAuth := c.hub.authService != nil && c.hub.authService.Enabled()
	if requireAuth {
		c.conn.SetReadDeadline(time.Now().Add(authWait))
	} else {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", c.id.String()))
			}
			return
		}

		// First message must authenticate when auth is enabled
		if requireAuth && !c.authenticated {
			if !c.authenticate(msg) {
				return
			}
			if !c.hub.add(c) {
				return
			}
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) authenticate(msg ClientMessage) bool {
	if msg.Type != MessageTypeAuth || msg.Token == "" {
		c.sendMessage(NewMessage(MessageTypeAuthFailed, map[string]string{"reason": "first message must be authentication"}))
		return false
	}

	subject, permissions, err := c.hub.authService.ValidateToken(msg.Token)
	if err != nil || !hasPermission(permissions, auth.PermRead) {
		c.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("client_id", c.id.String()))
		c.sendMessage(NewMessage(MessageTypeAuthFailed, map[string]string{"reason": "invalid or expired token"}))
		return false
	}

	c.mu.Lock()
	c.authenticated = true
	c.permissions = permissions
	c.mu.Unlock()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	c.sendMessage(NewMessage(MessageTypeAuthSuccess, map[string]any{"subject": subject, "permissions": permissions}))
	c.logger.Info("WebSocket client authenticated",
		zap.String("client_id", c.id.String()),
		zap.String("subject", subject))
	return true
}

func (c *Client) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		f, err := c.hub.registry.Get(msg.Format)
		if err != nil {
			c.sendMessage(NewErrorMessage(err.Error()))
			return
		}
		c.mu.Lock()
		c.format = f.ID()
		c.mu.Unlock()
		ack := NewMessage(MessageTypeSubscribed, nil)
		ack.Format = f.ID()
		c.sendMessage(ack)
	default:
		c.logger.Debug("Unhandled client message",
			zap.String("client_id", c.id.String()),
			zap.String("type", string(msg.Type)))
		c.sendMessage(NewErrorMessage("unknown message type: " + string(msg.Type)))
	}
}

// writePump handles writing messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles WebSocket upgrade requests. Without auth the client is
// registered immediately; otherwise after its first message authenticates.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade error",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		id:     uuid.New(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: hub.logger,
		format: hub.defaultFormat,
	}
	if f := r.URL.Query().Get("format"); f != "" {
		if known, err := hub.registry.Get(f); err == nil {
			client.format = known.ID()
		}
	}

	go client.writePump()

	if hub.authService == nil || !hub.authService.Enabled() {
		if !hub.add(client) {
			client.close()
			return
		}
	}

	go client.readPump()
}

func hasPermission(permissions []auth.Permission, required auth.Permission) bool {
	for _, p := range permissions {
		if p == required {
			return true
		}
	}
	return false
}
