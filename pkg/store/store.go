// Package store holds the durable match/move persistence collaborators. The
// store is eventually consistent with the in-memory session state: the core
// writes to it on a best-effort basis and never depends on it for live
// correctness. Write failures are logged and swallowed, they must never fail
// an otherwise-valid operation.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a match record does not exist.
var ErrNotFound = errors.New("match record not found")

// MatchConfig is the durable per-match configuration loaded when a live
// session needs to be rebuilt after eviction.
type MatchConfig struct {
	Mode      string
	Player1ID string
	Player2ID string
}

// Store is the durable persistence collaborator. LoadMatchConfig is the only
// read the core performs; all writes are fire-and-forget from the core's
// perspective.
type Store interface {
	// CreateMatch records a newly paired match.
	CreateMatch(ctx context.Context, matchID, player1ID, player2ID, mode string) error

	// LoadMatchConfig returns the recorded configuration for a match, or
	// ErrNotFound.
	LoadMatchConfig(ctx context.Context, matchID string) (MatchConfig, error)

	// SaveMove appends the position string and coordinate move code for one ply.
	SaveMove(ctx context.Context, matchID, position, moveCode string, ply int) error

	// SaveMatchResult records the terminal status of a match.
	SaveMatchResult(ctx context.Context, matchID, status string, finishedAt time.Time) error

	// SavePlayerClocks records the remaining budgets after a timed move. Nil
	// means untimed.
	SavePlayerClocks(ctx context.Context, matchID string, p1Remaining, p2Remaining *time.Duration) error
}
