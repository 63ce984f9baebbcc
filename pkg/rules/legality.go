// Package rules validates moves against the laws of chess. The server trusts
// clients with board state by default; this checker is the opt-in guard for
// deployments that want every move verified before it is applied.
package rules

import (
	"errors"
	"fmt"
	"strings"

	chesslib "github.com/corentings/chess/v2"
)

// ErrIllegalMove reports a move that is not legal in the given position.
var ErrIllegalMove = errors.New("illegal move")

// Checker validates UCI moves against a FEN position.
type Checker struct{}

// NewChecker creates a rules checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Validate replays the position described by fenBefore and checks that
// moveCode (UCI, e.g. "e2e4" or "e7e8q") is legal from it.
func (c *Checker) Validate(fenBefore, moveCode string) error {
	moveCode = strings.ToLower(strings.TrimSpace(moveCode))
	if moveCode == "" {
		return fmt.Errorf("%w: empty move", ErrIllegalMove)
	}

	var g *chesslib.Game
	if strings.TrimSpace(fenBefore) == "" {
		g = chesslib.NewGame()
	} else {
		option, err := chesslib.FEN(fenBefore)
		if err != nil {
			return fmt.Errorf("parse fen %q: %w", fenBefore, err)
		}
		g = chesslib.NewGame(option)
	}

	if err := g.PushNotationMove(moveCode, chesslib.UCINotation{}, nil); err != nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, moveCode)
	}

	return nil
}
