package messages

// OutboundMessage is how we wrap responses and events before sending them to
// the client.
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// ConnectedPayload acknowledges a fresh WebSocket connection.
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
	PlayerID     string `json:"player_id"`
}

// ErrorPayload reports a rejected request.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MatchmakingPayload is the REST answer for enqueue and poll requests.
type MatchmakingPayload struct {
	MatchID string `json:"match_id,omitempty"`
	Waiting bool   `json:"waiting"`
}

// GameStatusPayload is the per-player view of a live match.
type GameStatusPayload struct {
	MatchID     string       `json:"match_id"`
	Status      string       `json:"status"`
	Board       [8][8]string `json:"board"`
	FEN         string       `json:"fen"`
	WhiteToMove bool         `json:"is_white_turn"`
	PlayerColor string       `json:"player_color,omitempty"`
	IsMyTurn    bool         `json:"is_my_turn"`
	Mode        string       `json:"mode"`
	Player1ID   string       `json:"player1_id"`
	Player2ID   string       `json:"player2_id"`

	// Remaining clocks in milliseconds; nil for untimed matches.
	Player1RemainingMs *int64 `json:"player1_remaining_ms,omitempty"`
	Player2RemainingMs *int64 `json:"player2_remaining_ms,omitempty"`
}

// ErrorMovePayload is the synthetic move broadcast when a move request fails,
// so every client in the room sees the rejection rather than just the sender.
type ErrorMovePayload struct {
	MatchID string `json:"match_id"`
	Piece   string `json:"piece"`
	Error   string `json:"error"`
}
