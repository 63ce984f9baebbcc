// Package messages defines the JSON envelopes exchanged over the WebSocket
// and REST surfaces.
package messages

import "encoding/json"

// InboundMessage is the generic wrapper for messages coming from the client.
// The "event" field tells us the action; "payload" is the data we parse further.
type InboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// JoinPayload asks to join a match and subscribe to its events.
type JoinPayload struct {
	MatchID string `json:"match_id"`
}

// MovePayload carries a full move description including the resulting board.
// Coordinates are pointers so missing fields are rejected rather than read
// as square a8.
type MovePayload struct {
	MatchID string `json:"match_id"`

	FromRow *int `json:"from_row"`
	FromCol *int `json:"from_col"`
	ToRow   *int `json:"to_row"`
	ToCol   *int `json:"to_col"`

	Piece         string `json:"piece"`
	PlayerColor   string `json:"player_color"`
	PromotedTo    string `json:"promoted_to,omitempty"`
	CapturedPiece string `json:"captured_piece,omitempty"`

	IsCastle    bool `json:"is_castle"`
	IsEnPassant bool `json:"is_en_passant"`
	IsPromotion bool `json:"is_promotion"`

	Board *[8][8]string `json:"board"`
	FEN   string        `json:"fen,omitempty"`
}

// ResignPayload ends the sender's game.
type ResignPayload struct {
	MatchID string `json:"match_id"`
}

// DrawOfferPayload relays a draw offer to the opponent.
type DrawOfferPayload struct {
	MatchID string `json:"match_id"`
}

// DrawAcceptPayload accepts a pending draw offer.
type DrawAcceptPayload struct {
	MatchID string `json:"match_id"`
}

// ChatPayload carries a chat line for the match room.
type ChatPayload struct {
	MatchID string `json:"match_id"`
	Message string `json:"message"`
}
