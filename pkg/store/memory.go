package store

import (
	"context"
	"sync"
	"time"
)

type matchRecord struct {
	config     MatchConfig
	status     string
	finishedAt time.Time
	p1Clock    *time.Duration
	p2Clock    *time.Duration
	moves      []moveRecord
}

type moveRecord struct {
	ply      int
	position string
	moveCode string
}

// MemoryStore is an in-memory Store used in tests and when the server runs
// without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]*matchRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[string]*matchRecord),
	}
}

func (s *MemoryStore) CreateMatch(_ context.Context, matchID, player1ID, player2ID, mode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches[matchID] = &matchRecord{
		config: MatchConfig{
			Mode:      mode,
			Player1ID: player1ID,
			Player2ID: player2ID,
		},
		status: "IN_PROGRESS",
	}

	return nil
}

func (s *MemoryStore) LoadMatchConfig(_ context.Context, matchID string) (MatchConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.matches[matchID]
	if !ok {
		return MatchConfig{}, ErrNotFound
	}

	return rec.config, nil
}

func (s *MemoryStore) SaveMove(_ context.Context, matchID, position, moveCode string, ply int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.matches[matchID]
	if !ok {
		return ErrNotFound
	}

	rec.moves = append(rec.moves, moveRecord{ply: ply, position: position, moveCode: moveCode})

	return nil
}

func (s *MemoryStore) SaveMatchResult(_ context.Context, matchID, status string, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.matches[matchID]
	if !ok {
		return ErrNotFound
	}

	rec.status = status
	rec.finishedAt = finishedAt

	return nil
}

func (s *MemoryStore) SavePlayerClocks(_ context.Context, matchID string, p1Remaining, p2Remaining *time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.matches[matchID]
	if !ok {
		return ErrNotFound
	}

	rec.p1Clock = copyDuration(p1Remaining)
	rec.p2Clock = copyDuration(p2Remaining)

	return nil
}

// MoveCount reports the number of recorded moves for a match.
func (s *MemoryStore) MoveCount(matchID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.matches[matchID]
	if !ok {
		return 0
	}

	return len(rec.moves)
}

// MatchStatus reports the recorded terminal status for a match.
func (s *MemoryStore) MatchStatus(matchID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.matches[matchID]
	if !ok {
		return ""
	}

	return rec.status
}

// LastMove returns the most recently recorded position and move code.
func (s *MemoryStore) LastMove(matchID string) (position, moveCode string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, found := s.matches[matchID]
	if !found || len(rec.moves) == 0 {
		return "", "", false
	}

	last := rec.moves[len(rec.moves)-1]

	return last.position, last.moveCode, true
}

func copyDuration(d *time.Duration) *time.Duration {
	if d == nil {
		return nil
	}

	v := *d

	return &v
}
