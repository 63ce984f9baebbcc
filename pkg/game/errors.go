package game

import "errors"

// Typed failures returned to callers. Validation errors never corrupt the
// session they were raised against.
var (
	// ErrMatchNotFound is returned for an unknown match id.
	ErrMatchNotFound = errors.New("match not found")

	// ErrNotAuthorized is returned when the caller is not a participant of the match.
	ErrNotAuthorized = errors.New("not a participant of this match")

	// ErrInvalidMove is returned for missing or malformed move fields, a move
	// out of turn, or a declared color that disagrees with the side to move.
	ErrInvalidMove = errors.New("invalid move")

	// ErrGameNotActive is returned when a mutating operation is attempted on a
	// match that has already reached a terminal status.
	ErrGameNotActive = errors.New("game is not active")
)
