// Package events defines the closed set of event variants the core emits and
// the publish interface used to deliver them. Each variant has a fixed, typed
// field set so that event handling stays exhaustive at compile time.
package events

import "time"

// Kind tags an event variant.
type Kind string

// All event kinds the core publishes.
const (
	KindMoveApplied  Kind = "MOVE_APPLIED"
	KindPlayerJoined Kind = "PLAYER_JOINED"
	KindResignation  Kind = "RESIGNATION"
	KindDrawOffer    Kind = "DRAW_OFFER"
	KindDrawAccepted Kind = "DRAW_ACCEPTED"
	KindGameEnd      Kind = "GAME_END"
	KindChatMessage  Kind = "CHAT_MESSAGE"
)

// Event is implemented by every variant below.
type Event interface {
	Kind() Kind
}

// MoveApplied is broadcast to the match topic after every accepted move.
type MoveApplied struct {
	MatchID     string       `json:"match_id"`
	PlayerID    string       `json:"player_id"`
	PlayerColor string       `json:"player_color"`
	FromRow     int          `json:"from_row"`
	FromCol     int          `json:"from_col"`
	ToRow       int          `json:"to_row"`
	ToCol       int          `json:"to_col"`
	Piece       string       `json:"piece"`
	PromotedTo  string       `json:"promoted_to,omitempty"`
	Captured    string       `json:"captured_piece,omitempty"`
	IsCastle    bool         `json:"is_castle"`
	IsEnPassant bool         `json:"is_en_passant"`
	IsPromotion bool         `json:"is_promotion"`
	Notation    string       `json:"notation"`
	UCI         string       `json:"uci"`
	FEN         string       `json:"fen"`
	Board       [8][8]string `json:"board"`
	WhiteToMove bool         `json:"is_white_turn"`
	Timestamp   time.Time    `json:"timestamp"`
}

func (MoveApplied) Kind() Kind { return KindMoveApplied }

// PlayerJoined is broadcast to the match topic when a participant joins.
type PlayerJoined struct {
	MatchID     string    `json:"match_id"`
	PlayerID    string    `json:"player_id"`
	PlayerColor string    `json:"player_color"`
	Status      string    `json:"status"`
	FEN         string    `json:"fen"`
	WhiteToMove bool      `json:"is_white_turn"`
	Timestamp   time.Time `json:"timestamp"`
}

func (PlayerJoined) Kind() Kind { return KindPlayerJoined }

// Resignation is broadcast to the match topic, naming the resigning player.
type Resignation struct {
	MatchID   string    `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (Resignation) Kind() Kind { return KindResignation }

// DrawOffer is delivered point-to-point to the opponent only.
type DrawOffer struct {
	MatchID   string    `json:"match_id"`
	From      string    `json:"from"`
	Timestamp time.Time `json:"timestamp"`
}

func (DrawOffer) Kind() Kind { return KindDrawOffer }

// DrawAccepted is broadcast to all participants.
type DrawAccepted struct {
	MatchID   string    `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (DrawAccepted) Kind() Kind { return KindDrawAccepted }

// GameEnd is broadcast when the match reaches a terminal status.
type GameEnd struct {
	MatchID   string    `json:"match_id"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func (GameEnd) Kind() Kind { return KindGameEnd }

// ChatMessage is relayed verbatim to the match topic.
type ChatMessage struct {
	MatchID   string    `json:"match_id"`
	From      string    `json:"from"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (ChatMessage) Kind() Kind { return KindChatMessage }

// Notifier delivers events to match topics and individual players. The core
// consumes it, never owns it; implementations must not block the caller.
type Notifier interface {
	PublishToMatch(matchID string, event Event)
	PublishToPlayer(playerID string, event Event)
}
