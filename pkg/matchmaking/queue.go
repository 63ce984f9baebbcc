// Package matchmaking pairs waiting players into live matches. The queue owns
// two collections: waiting entries keyed by player id, and completed pairings
// keyed by match id. A single mutex guards both; pairing decisions and
// pairing consumption are each one atomic step.
package matchmaking

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/indichess/live-server/pkg/game"
	"github.com/indichess/live-server/pkg/metrics"
)

// DefaultEntryTTL is how long a waiting entry or an unclaimed pairing
// survives before the stale sweep removes it.
const DefaultEntryTTL = 5 * time.Minute

// MatchCreator produces the live session for a decided pairing. Satisfied by
// *game.Manager.
type MatchCreator interface {
	CreateMatch(player1ID, player2ID string, mode game.Mode) (string, error)
}

// WaitingEntry is one player waiting for an opponent.
type WaitingEntry struct {
	PlayerID   string
	Mode       game.Mode
	EnqueuedAt time.Time
}

// Pairing records that two waiting players were matched into a new match.
// Each player claims it at most once via PollPairing; once both have claimed
// it the pairing is removed.
type Pairing struct {
	MatchID   string
	PlayerA   string
	PlayerB   string
	CreatedAt time.Time

	claimed map[string]bool
}

// PollStatus is the outcome of a PollPairing call.
type PollStatus int

const (
	// PollMatched means a pairing existed and was claimed; the match id is valid.
	PollMatched PollStatus = iota
	// PollWaiting means the player still has a waiting entry.
	PollWaiting
	// PollNotFound means the player is neither waiting nor holds an
	// unclaimed pairing.
	PollNotFound
)

// EnqueueOutcome is the result of EnqueueOrPair. Pending means the caller was
// put (or left) on the waiting list; otherwise MatchID names the new match.
type EnqueueOutcome struct {
	MatchID string
	Pending bool
}

// Queue is the matchmaking queue. First eligible match wins: any waiting
// entry with the same mode is an acceptable opponent.
type Queue struct {
	mu       sync.Mutex
	waiting  map[string]*WaitingEntry
	pairings map[string]*Pairing
	byPlayer map[string]string // player id -> match id of an unclaimed pairing

	creator MatchCreator
	logger  *zap.Logger

	entryTTL time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates an empty queue that delegates session creation to creator.
func NewQueue(creator MatchCreator, logger *zap.Logger) *Queue {
	return &Queue{
		waiting:  make(map[string]*WaitingEntry),
		pairings: make(map[string]*Pairing),
		byPlayer: make(map[string]string),
		creator:  creator,
		logger:   logger,
		entryTTL: DefaultEntryTTL,
		done:     make(chan struct{}),
	}
}

// SetEntryTTL overrides the staleness threshold. Call before StartSweeper.
func (q *Queue) SetEntryTTL(d time.Duration) {
	if d > 0 {
		q.entryTTL = d
	}
}

// EnqueueOrPair matches playerID against a waiting opponent with the same
// mode, creating the match immediately when one exists; otherwise the player
// is added to the waiting list. Idempotent on playerID: re-enqueueing while
// already waiting refreshes the requested mode but never duplicates the entry.
func (q *Queue) EnqueueOrPair(playerID string, mode game.Mode) (EnqueueOutcome, error) {
	if playerID == "" {
		return EnqueueOutcome{}, fmt.Errorf("player id is required")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	// Already paired and not yet claimed: hand back the same match.
	if matchID, ok := q.byPlayer[playerID]; ok {
		return EnqueueOutcome{MatchID: matchID}, nil
	}

	if entry, ok := q.waiting[playerID]; ok {
		entry.Mode = mode
		return EnqueueOutcome{Pending: true}, nil
	}

	if opponent := q.oldestWaitingLocked(playerID, mode); opponent != nil {
		// The waiting player enqueued first, so they take white (player1).
		matchID, err := q.creator.CreateMatch(opponent.PlayerID, playerID, mode)
		if err != nil {
			return EnqueueOutcome{}, fmt.Errorf("create match: %w", err)
		}

		delete(q.waiting, opponent.PlayerID)

		pairing := &Pairing{
			MatchID:   matchID,
			PlayerA:   opponent.PlayerID,
			PlayerB:   playerID,
			CreatedAt: time.Now(),
			claimed:   make(map[string]bool, 2),
		}
		q.pairings[matchID] = pairing
		q.byPlayer[opponent.PlayerID] = matchID
		q.byPlayer[playerID] = matchID

		metrics.PairingsTotal.Inc()
		q.logger.Info("paired players",
			zap.String("match_id", matchID),
			zap.String("player1", opponent.PlayerID),
			zap.String("player2", playerID),
			zap.String("mode", string(mode)))

		return EnqueueOutcome{MatchID: matchID}, nil
	}

	q.waiting[playerID] = &WaitingEntry{
		PlayerID:   playerID,
		Mode:       mode,
		EnqueuedAt: time.Now(),
	}

	q.logger.Info("player waiting for opponent",
		zap.String("player", playerID),
		zap.String("mode", string(mode)))

	return EnqueueOutcome{Pending: true}, nil
}

// oldestWaitingLocked returns the longest-waiting entry for mode belonging to
// a different player, or nil. Caller holds q.mu.
func (q *Queue) oldestWaitingLocked(exclude string, mode game.Mode) *WaitingEntry {
	var oldest *WaitingEntry

	for _, entry := range q.waiting {
		if entry.PlayerID == exclude || entry.Mode != mode {
			continue
		}
		if oldest == nil || entry.EnqueuedAt.Before(oldest.EnqueuedAt) {
			oldest = entry
		}
	}

	return oldest
}

// PollPairing answers "am I paired yet?". Claiming is a single atomic step:
// the player's residue on the waiting list is removed together with their
// claim, and the pairing itself is removed once both players have claimed it.
// A player's second poll after claiming reports PollNotFound.
func (q *Queue) PollPairing(playerID string) (string, PollStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.waiting[playerID]; ok {
		return "", PollWaiting
	}

	matchID, ok := q.byPlayer[playerID]
	if !ok {
		return "", PollNotFound
	}

	pairing := q.pairings[matchID]

	pairing.claimed[playerID] = true
	delete(q.byPlayer, playerID)
	delete(q.waiting, pairing.PlayerA)
	delete(q.waiting, pairing.PlayerB)

	if pairing.claimed[pairing.PlayerA] && pairing.claimed[pairing.PlayerB] {
		delete(q.pairings, matchID)
	}

	return matchID, PollMatched
}

// Cancel removes the player's waiting entry if present and reports whether
// anything was removed. It has no effect once a pairing has formed.
func (q *Queue) Cancel(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.waiting[playerID]; !ok {
		return false
	}

	delete(q.waiting, playerID)
	q.logger.Info("player cancelled waiting", zap.String("player", playerID))

	return true
}

// WaitingCount reports the number of players currently waiting.
func (q *Queue) WaitingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.waiting)
}

// StartSweeper launches the periodic removal of stale waiting entries and
// unclaimed pairings.
func (q *Queue) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-q.done:
				return
			case <-ticker.C:
				q.sweepStale()
			}
		}
	}()
}

func (q *Queue) sweepStale() {
	cutoff := time.Now().Add(-q.entryTTL)

	q.mu.Lock()
	defer q.mu.Unlock()

	for id, entry := range q.waiting {
		if entry.EnqueuedAt.Before(cutoff) {
			delete(q.waiting, id)
			q.logger.Info("removed stale waiting entry", zap.String("player", id))
		}
	}

	for matchID, pairing := range q.pairings {
		if pairing.CreatedAt.Before(cutoff) {
			delete(q.pairings, matchID)
			delete(q.byPlayer, pairing.PlayerA)
			delete(q.byPlayer, pairing.PlayerB)
			q.logger.Info("removed stale pairing", zap.String("match_id", matchID))
		}
	}
}

// Close stops the sweeper.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}
