package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const refreshTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST routes; the socket carries no data
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newMessage(event string, payload any) (WSMessage, error) {
	if payload == nil {
		return WSMessage{Event: event}, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return WSMessage{Event: event, Data: raw}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return WSMessage{}, fmt.Errorf("marshal %s: %w", event, err)
	}
	return WSMessage{Event: event, Data: data}, nil
}

// Refresher re-reads the whole snapshot.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// TokenValidator resolves a session token to a user id.
type TokenValidator func(token string) (uuid.UUID, error)

// Client is one WebSocket connection.
type Client struct {
	ID        string
	UserID    uuid.UUID
	hub       *Hub
	refresher Refresher
	conn      *websocket.Conn
	send      chan WSMessage
	logger    *zap.Logger
}

// ServeWs upgrades the request and runs the client loop. Browsers cannot set headers on a socket, so
// the session token travels in the token query parameter.
func ServeWs(hub *Hub, refresher Refresher, validate TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		userID, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:        uuid.New().String(),
			UserID:    userID,
			hub:       hub,
			refresher: refresher,
			conn:      conn,
			send:      make(chan WSMessage, 64),
			logger:    logger,
		}
		hub.Register(client)
		hub.SendToClient(client.ID, EventHello, map[string]string{"client_id": client.ID})
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "resume":
			c.resume()
		default:
			// ignore
		}
	}
}

// resume runs when the browser tab regains focus. A successful refresh reaches every client through
// the refresh hook; a failure is reported to this client only.
func (c *Client) resume() {
	if c.refresher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if err := c.refresher.RefreshAll(ctx); err != nil {
		c.logger.Warn("resume refresh incomplete", zap.String("client_id", c.ID), zap.Error(err))
		c.hub.SendToClient(c.ID, EventRefreshFailed, map[string]string{"error": err.Error()})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
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
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
