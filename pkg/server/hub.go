// Package server bridges WebSocket connections to the game core: it routes
// inbound client frames to the manager and fans published events back out to
// match rooms and individual players.
package server

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/indichess/live-server/internal/color"
	"github.com/indichess/live-server/pkg/events"
	"github.com/indichess/live-server/pkg/game"
	"github.com/indichess/live-server/pkg/messages"
)

// InboundHubMessage are the messages that the hub receives
type InboundHubMessage struct {
	Conn    *Connection             // who sent it
	Message messages.InboundMessage // raw JSON frame
}

// Hub keeps track of all active connections, which match room each one has
// joined, and which player each one authenticated as. Inbound frames are
// routed to the game manager; published events are delivered to the right
// connections.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Connection]bool
	byPlayer    map[string]map[*Connection]bool
	matchRooms  map[string]map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection
	inbound    chan InboundHubMessage

	gameManager *game.Manager
	publisher   *events.Publisher
	logger      *zap.Logger
}

// NewHub creates a new hub and subscribes it to the event publisher.
func NewHub(gm *game.Manager, publisher *events.Publisher, logger *zap.Logger) *Hub {
	h := &Hub{
		connections: make(map[*Connection]bool),
		byPlayer:    make(map[string]map[*Connection]bool),
		matchRooms:  make(map[string]map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan InboundHubMessage),
		gameManager: gm,
		publisher:   publisher,
		logger:      logger,
	}

	publisher.SubscribeAll(h.deliver)

	return h
}

// Run is the main execution of the hub
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.registerConnection(conn)

		case conn := <-h.unregister:
			h.unregisterConnection(conn)

		case msg := <-h.inbound:
			h.handleInbound(msg)
		}
	}
}

func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = true
	if conn.PlayerID != "" {
		if h.byPlayer[conn.PlayerID] == nil {
			h.byPlayer[conn.PlayerID] = make(map[*Connection]bool)
		}
		h.byPlayer[conn.PlayerID][conn] = true
	}

	h.logger.Info("connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.String("player", conn.PlayerID),
		zap.Int("total", len(h.connections)))

	conn.SendJSON(messages.OutboundMessage{
		Event: "CONNECTED",
		Payload: messages.ConnectedPayload{
			ConnectionID: conn.ID.String(),
			PlayerID:     conn.PlayerID,
		},
	})
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn]; !ok {
		return
	}

	delete(h.connections, conn)
	close(conn.send)

	if conns, ok := h.byPlayer[conn.PlayerID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.byPlayer, conn.PlayerID)
		}
	}

	for matchID, room := range h.matchRooms {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.matchRooms, matchID)
		}
	}

	h.logger.Info("connection unregistered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total", len(h.connections)))
}

func (h *Hub) joinRoom(matchID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.matchRooms[matchID] == nil {
		h.matchRooms[matchID] = make(map[*Connection]bool)
	}
	h.matchRooms[matchID][conn] = true
}

// deliver routes a published event to its audience: a single player's
// connections for point-to-point envelopes, the match room otherwise.
func (h *Hub) deliver(env events.Envelope) {
	msg := messages.OutboundMessage{
		Event:   string(env.Event.Kind()),
		Payload: env.Event,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if env.PlayerID != "" {
		for conn := range h.byPlayer[env.PlayerID] {
			conn.SendJSON(msg)
		}
		return
	}

	for conn := range h.matchRooms[env.MatchID] {
		conn.SendJSON(msg)
	}
}

// handleInbound decodes and routes a frame from a client.
func (h *Hub) handleInbound(msg InboundHubMessage) {
	switch msg.Message.Event {
	case "JOIN":
		var payload messages.JoinPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "BAD_PAYLOAD", "Invalid JOIN payload")
			return
		}

		sum, err := h.gameManager.Join(payload.MatchID, msg.Conn.PlayerID)
		if err != nil {
			h.sendError(msg.Conn, errorCode(err), err.Error())
			return
		}

		h.joinRoom(payload.MatchID, msg.Conn)

		msg.Conn.SendJSON(messages.OutboundMessage{
			Event:   "GAME_STATUS",
			Payload: StatusPayload(sum),
		})

	case "MOVE":
		var payload messages.MovePayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "BAD_PAYLOAD", "Invalid MOVE payload")
			return
		}

		req := moveRequest(payload)
		if _, err := h.gameManager.ApplyMove(payload.MatchID, msg.Conn.PlayerID, req); err != nil {
			h.sendError(msg.Conn, errorCode(err), err.Error())
			h.broadcastErrorMove(payload.MatchID, err)
			return
		}

	case "RESIGN":
		var payload messages.ResignPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "BAD_PAYLOAD", "Invalid RESIGN payload")
			return
		}

		if err := h.gameManager.Resign(payload.MatchID, msg.Conn.PlayerID); err != nil {
			h.sendError(msg.Conn, errorCode(err), err.Error())
		}

	case "DRAW_OFFER":
		var payload messages.DrawOfferPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "BAD_PAYLOAD", "Invalid DRAW_OFFER payload")
			return
		}

		if err := h.gameManager.OfferDraw(payload.MatchID, msg.Conn.PlayerID); err != nil {
			h.sendError(msg.Conn, errorCode(err), err.Error())
		}

	case "DRAW_ACCEPT":
		var payload messages.DrawAcceptPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "BAD_PAYLOAD", "Invalid DRAW_ACCEPT payload")
			return
		}

		if err := h.gameManager.AcceptDraw(payload.MatchID, msg.Conn.PlayerID); err != nil {
			h.sendError(msg.Conn, errorCode(err), err.Error())
		}

	case "CHAT":
		var payload messages.ChatPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(msg.Conn, "BAD_PAYLOAD", "Invalid CHAT payload")
			return
		}

		// Relayed verbatim; the server does not inspect chat content.
		h.publisher.PublishToMatch(payload.MatchID, events.ChatMessage{
			MatchID:   payload.MatchID,
			From:      msg.Conn.PlayerID,
			Message:   payload.Message,
			Timestamp: time.Now(),
		})

	default:
		h.sendError(msg.Conn, "UNKNOWN_EVENT", "Unknown message type")
	}
}

// broadcastErrorMove tells the whole room a move was rejected, so both boards
// stay in sync even when only one side attempted the bad move.
func (h *Hub) broadcastErrorMove(matchID string, cause error) {
	msg := messages.OutboundMessage{
		Event: "ERROR_MOVE",
		Payload: messages.ErrorMovePayload{
			MatchID: matchID,
			Piece:   "error",
			Error:   cause.Error(),
		},
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.matchRooms[matchID] {
		conn.SendJSON(msg)
	}
}

func (h *Hub) sendError(conn *Connection, code, msg string) {
	conn.SendJSON(messages.OutboundMessage{
		Event: "ERROR",
		Payload: messages.ErrorPayload{
			Code:    code,
			Message: msg,
		},
	})
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		close(conn.send)
		delete(h.connections, conn)
	}
	h.byPlayer = make(map[string]map[*Connection]bool)
	h.matchRooms = make(map[string]map[*Connection]bool)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrMatchNotFound):
		return "MATCH_NOT_FOUND"
	case errors.Is(err, game.ErrNotAuthorized):
		return "NOT_AUTHORIZED"
	case errors.Is(err, game.ErrInvalidMove):
		return "INVALID_MOVE"
	case errors.Is(err, game.ErrGameNotActive):
		return "GAME_NOT_ACTIVE"
	default:
		return "INTERNAL"
	}
}

func moveRequest(p messages.MovePayload) game.MoveRequest {
	req := game.MoveRequest{
		FromRow:       p.FromRow,
		FromCol:       p.FromCol,
		ToRow:         p.ToRow,
		ToCol:         p.ToCol,
		Piece:         p.Piece,
		PlayerColor:   color.Color(p.PlayerColor),
		PromotedTo:    p.PromotedTo,
		CapturedPiece: p.CapturedPiece,
		IsCastle:      p.IsCastle,
		IsEnPassant:   p.IsEnPassant,
		IsPromotion:   p.IsPromotion,
		FENAfter:      p.FEN,
	}

	if p.Board != nil {
		b := game.Board(*p.Board)
		req.Board = &b
	}

	return req
}

// StatusPayload converts a session summary to its wire representation. The
// REST status endpoint shares it with the JOIN reply.
func StatusPayload(sum game.SessionSummary) messages.GameStatusPayload {
	payload := messages.GameStatusPayload{
		MatchID:     sum.MatchID,
		Status:      string(sum.Status),
		Board:       [8][8]string(sum.Board),
		FEN:         sum.FEN,
		WhiteToMove: sum.WhiteToMove,
		PlayerColor: string(sum.PlayerColor),
		IsMyTurn:    sum.IsMyTurn,
		Mode:        string(sum.Mode),
		Player1ID:   sum.Player1ID,
		Player2ID:   sum.Player2ID,
	}

	if sum.Player1Remaining != nil {
		ms := sum.Player1Remaining.Milliseconds()
		payload.Player1RemainingMs = &ms
	}
	if sum.Player2Remaining != nil {
		ms := sum.Player2Remaining.Milliseconds()
		payload.Player2RemainingMs = &ms
	}

	return payload
}
