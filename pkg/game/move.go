package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/indichess/live-server/internal/color"
)

// MoveRequest is the caller-supplied description of a move. The core trusts
// the resulting board and does not recompute chess legality; see the optional
// legality checker wired into the Manager for the additive validation path.
//
// Coordinate fields are pointers so that absent values can be told apart from
// zero: row 0, col 0 is a real square.
type MoveRequest struct {
	FromRow *int
	FromCol *int
	ToRow   *int
	ToCol   *int

	Piece         string
	PlayerColor   color.Color
	PromotedTo    string
	CapturedPiece string

	IsCastle    bool
	IsEnPassant bool
	IsPromotion bool

	// Board is the full resulting position after the move.
	Board *Board

	// FENAfter optionally carries the client's own serialization; the core
	// recomputes its FEN from Board regardless.
	FENAfter string
}

// validate checks the request's shape only. Turn and color checks live in
// ApplyMove because they need session state.
func (r *MoveRequest) validate() error {
	if r.FromRow == nil || r.FromCol == nil || r.ToRow == nil || r.ToCol == nil {
		return fmt.Errorf("%w: move coordinates cannot be null", ErrInvalidMove)
	}

	if !validSquare(*r.FromRow, *r.FromCol) || !validSquare(*r.ToRow, *r.ToCol) {
		return fmt.Errorf("%w: move coordinates out of range", ErrInvalidMove)
	}

	if r.Piece == "" {
		return fmt.Errorf("%w: piece cannot be empty", ErrInvalidMove)
	}

	if !r.PlayerColor.Valid() {
		return fmt.Errorf("%w: player color cannot be empty", ErrInvalidMove)
	}

	if r.Board == nil {
		return fmt.Errorf("%w: resulting board cannot be null", ErrInvalidMove)
	}

	return nil
}

// Notation derives an algebraic-style string for the move. Castling is
// detected from the destination column; pawns contribute no piece letter.
func (r *MoveRequest) Notation() string {
	if r.IsCastle {
		if *r.ToCol == 6 {
			return "O-O"
		}
		return "O-O-O"
	}

	pieceSymbol := strings.ToUpper(r.Piece)
	if strings.EqualFold(r.Piece, "p") {
		pieceSymbol = ""
	}

	capture := ""
	if r.CapturedPiece != "" {
		capture = "x"
	}

	return pieceSymbol + capture + squareName(*r.ToRow, *r.ToCol)
}

// UCI derives the compact from-square/to-square move code used for durable
// move logging, with a trailing promotion letter when applicable.
func (r *MoveRequest) UCI() string {
	code := squareName(*r.FromRow, *r.FromCol) + squareName(*r.ToRow, *r.ToCol)

	if r.IsPromotion && r.PromotedTo != "" {
		switch promoted := strings.ToLower(r.PromotedTo); promoted {
		case "q", "r", "b", "n":
			code += promoted
		}
	}

	return code
}

// MoveOutcome is the applied move enriched with derived notation and the next
// side to move, suitable for broadcasting.
type MoveOutcome struct {
	MatchID  string
	PlayerID string

	FromRow int
	FromCol int
	ToRow   int
	ToCol   int

	Piece         string
	PlayerColor   color.Color
	PromotedTo    string
	CapturedPiece string

	IsCastle    bool
	IsEnPassant bool
	IsPromotion bool

	Notation string
	UCI      string
	FEN      string

	Board       Board
	WhiteToMove bool
	Status      Status
	Timestamp   time.Time
}
