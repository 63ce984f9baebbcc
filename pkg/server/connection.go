package server

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/indichess/live-server/pkg/messages"
)

// Connection is one authenticated WebSocket client. PlayerID is resolved from
// the bearer token at upgrade time and never changes afterwards.
type Connection struct {
	ID       uuid.UUID
	PlayerID string

	ws      *websocket.Conn
	hub     *Hub
	send    chan []byte // Buffered channel of outbound messages.
	writeMu sync.Mutex  // Mutex to protect concurrent writes to ws.

	logger *zap.Logger
}

// NewConnection wraps an upgraded WebSocket for playerID.
func NewConnection(ws *websocket.Conn, hub *Hub, playerID string, logger *zap.Logger) *Connection {
	return &Connection{
		ID:       uuid.New(),
		PlayerID: playerID,
		ws:       ws,
		hub:      hub,
		send:     make(chan []byte, 256),
		logger:   logger,
	}
}

// ReadPump handles inbound messages from the client
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()
	}()

	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read error", zap.Error(err))
			}
			break
		}

		// We only handle text
		if msgType != websocket.TextMessage {
			continue
		}

		var inbound messages.InboundMessage
		if err := json.Unmarshal(msg, &inbound); err != nil {
			c.logger.Error("failed to parse inbound JSON", zap.Error(err))
			continue
		}

		c.hub.inbound <- InboundHubMessage{Conn: c, Message: inbound}
	}
}

// WritePump handles outbound messages to the client
func (c *Connection) WritePump() {
	defer func() {
		c.ws.Close()
	}()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel closed
			c.logger.Info("send channel closed for connection",
				zap.String("connection_id", c.ID.String()))
			return
		}

		c.writeMu.Lock()
		err := c.ws.WriteMessage(websocket.TextMessage, message)
		c.writeMu.Unlock()
		if err != nil {
			c.logger.Error("write error", zap.Error(err))
			return
		}
	}
}

// SendJSON is a helper for sending JSON to this connection. Sends to a full
// or closing connection are dropped rather than blocking the hub.
func (c *Connection) SendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("error marshaling JSON", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("dropping message, send buffer full",
			zap.String("connection_id", c.ID.String()))
	}
}
