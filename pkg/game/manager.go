// Package game owns the live state of every active match: turn and move
// validation, time control, and termination. Session state is authoritative
// and in-memory; the durable store is written best-effort and never consulted
// on the hot path.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/indichess/live-server/internal/color"
	"github.com/indichess/live-server/pkg/events"
	"github.com/indichess/live-server/pkg/metrics"
	"github.com/indichess/live-server/pkg/store"
)

// DefaultIdleTimeout is how long a session may sit without a move before the
// sweeper evicts it from memory. Eviction does not delete the match record
// from the store; a later access rebuilds the session from there.
const DefaultIdleTimeout = 2 * time.Hour

// LegalityChecker optionally validates a move against chess rules before it
// is applied. It is strictly additive: with no checker configured the core
// trusts the caller's move description, which is the documented contract.
type LegalityChecker interface {
	Validate(fenBefore, moveCode string) error
}

// Manager owns the collection of live sessions keyed by match id. Mutating
// operations on one match are serialized by that session's own mutex;
// operations across different matches never contend.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
	configs  map[string]MatchConfig

	store    store.Store
	notifier events.Notifier
	checker  LegalityChecker
	logger   *zap.Logger

	idleAfter time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a manager with in-memory session storage.
func NewManager(st store.Store, notifier events.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*SessionState),
		configs:   make(map[string]MatchConfig),
		store:     st,
		notifier:  notifier,
		logger:    logger,
		idleAfter: DefaultIdleTimeout,
		done:      make(chan struct{}),
	}
}

// SetLegalityChecker wires the optional rules collaborator. Call before
// serving traffic.
func (m *Manager) SetLegalityChecker(c LegalityChecker) {
	m.checker = c
}

// SetIdleTimeout overrides the eviction threshold. Call before StartSweeper.
func (m *Manager) SetIdleTimeout(d time.Duration) {
	if d > 0 {
		m.idleAfter = d
	}
}

// CreateMatch registers a freshly paired match and eagerly builds its session.
// Called by the matchmaking queue with the pairing already decided.
func (m *Manager) CreateMatch(player1ID, player2ID string, mode Mode) (string, error) {
	matchID := uuid.New().String()
	cfg := MatchConfig{Mode: mode, Player1ID: player1ID, Player2ID: player2ID}

	m.mu.Lock()
	m.configs[matchID] = cfg
	m.sessions[matchID] = newSessionState(matchID, cfg)
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	// Best-effort durable record; live play does not depend on it.
	if err := m.store.CreateMatch(context.Background(), matchID, player1ID, player2ID, string(mode)); err != nil {
		m.logger.Warn("match record write failed", zap.String("match_id", matchID), zap.Error(err))
	}

	m.logger.Info("created match",
		zap.String("match_id", matchID),
		zap.String("player1", player1ID),
		zap.String("player2", player2ID),
		zap.String("mode", string(mode)))

	return matchID, nil
}

// EnsureInitialized returns the live session for matchID, constructing it
// from the registered (or stored) configuration when absent. Safe to call
// concurrently for the same match: the first caller wins, the rest observe
// the winner's session.
func (m *Manager) EnsureInitialized(matchID string) (*SessionState, error) {
	m.mu.RLock()
	s, ok := m.sessions[matchID]
	cfg, haveCfg := m.configs[matchID]
	m.mu.RUnlock()

	if ok {
		return s, nil
	}

	if !haveCfg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		rec, err := m.store.LoadMatchConfig(ctx, matchID)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		cfg = MatchConfig{
			Mode:      ParseMode(rec.Mode),
			Player1ID: rec.Player1ID,
			Player2ID: rec.Player2ID,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[matchID]; ok {
		return s, nil
	}

	s = newSessionState(matchID, cfg)
	m.configs[matchID] = cfg
	m.sessions[matchID] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))

	return s, nil
}

// Join ensures the session exists and returns the caller's read-only view.
// A PLAYER_JOINED event is broadcast on the match topic.
func (m *Manager) Join(matchID, playerID string) (SessionSummary, error) {
	s, err := m.EnsureInitialized(matchID)
	if err != nil {
		return SessionSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	playerColor, ok := s.playerColor(playerID)
	if !ok {
		return SessionSummary{}, ErrNotAuthorized
	}

	sum := s.summary(playerID)

	m.notifier.PublishToMatch(matchID, events.PlayerJoined{
		MatchID:     matchID,
		PlayerID:    playerID,
		PlayerColor: string(playerColor),
		Status:      string(s.Status),
		FEN:         sum.FEN,
		WhiteToMove: s.WhiteToMove,
		Timestamp:   time.Now(),
	})

	return sum, nil
}

// Status returns the read-only view without initializing or joining.
func (m *Manager) Status(matchID, playerID string) (SessionSummary, error) {
	m.mu.RLock()
	s, ok := m.sessions[matchID]
	m.mu.RUnlock()

	if !ok {
		return SessionSummary{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.summary(playerID), nil
}

// ApplyMove validates and applies a move for playerID. On success the board
// is replaced with the caller-supplied resulting position, the turn flips,
// and the mover's clock is charged for the elapsed time; a move that
// exhausts the mover's own clock still completes before the game ends.
//
// Validation failures leave the session untouched and are returned as typed
// errors; persistence failures are swallowed and never fail the move.
func (m *Manager) ApplyMove(matchID, playerID string, req MoveRequest) (MoveOutcome, error) {
	s, err := m.EnsureInitialized(matchID)
	if err != nil {
		metrics.MovesTotal.WithLabelValues("rejected").Inc()
		return MoveOutcome{}, err
	}

	s.mu.Lock()
	outcome, err := m.applyMoveLocked(s, playerID, req)
	s.mu.Unlock()

	if err != nil {
		metrics.MovesTotal.WithLabelValues("rejected").Inc()
		return MoveOutcome{}, err
	}

	metrics.MovesTotal.WithLabelValues("accepted").Inc()

	return outcome, nil
}

func (m *Manager) applyMoveLocked(s *SessionState, playerID string, req MoveRequest) (MoveOutcome, error) {
	if s.Status.Terminal() {
		return MoveOutcome{}, ErrGameNotActive
	}

	moverColor, ok := s.playerColor(playerID)
	if !ok {
		return MoveOutcome{}, ErrNotAuthorized
	}

	if err := req.validate(); err != nil {
		return MoveOutcome{}, err
	}

	sideToMove := color.FromWhiteToMove(s.WhiteToMove)
	if moverColor != sideToMove {
		return MoveOutcome{}, fmt.Errorf("%w: it is not %s's turn", ErrInvalidMove, playerID)
	}

	// Strict and symmetric: a declared color disagreeing with the side to
	// move is rejected even when the caller's identity would be consistent.
	if req.PlayerColor != sideToMove {
		return MoveOutcome{}, fmt.Errorf("%w: %s to move but declared color is %s",
			ErrInvalidMove, sideToMove, req.PlayerColor)
	}

	moveCode := req.UCI()

	if m.checker != nil {
		if err := m.checker.Validate(s.Board.FEN(s.WhiteToMove), moveCode); err != nil {
			return MoveOutcome{}, fmt.Errorf("%w: %v", ErrInvalidMove, err)
		}
	}

	// Validation complete; every mutation below commits together.
	now := time.Now()
	wasWhite := s.WhiteToMove

	s.Board = *req.Board
	s.WhiteToMove = !s.WhiteToMove
	s.LastMoveAt = now
	s.Ply++

	timed := s.Player1Remaining != nil || s.Player2Remaining != nil
	if timed {
		var elapsed time.Duration
		if !s.LastClockUpdateAt.IsZero() {
			elapsed = now.Sub(s.LastClockUpdateAt)
		}
		s.LastClockUpdateAt = now

		// Charge the mover, then check: the move that flagged still counts.
		if wasWhite && s.Player1Remaining != nil {
			left, expired := TickClock(*s.Player1Remaining, elapsed)
			*s.Player1Remaining = left
			if expired {
				s.Status = StatusTimeoutWhite
			}
		} else if !wasWhite && s.Player2Remaining != nil {
			left, expired := TickClock(*s.Player2Remaining, elapsed)
			*s.Player2Remaining = left
			if expired {
				s.Status = StatusTimeoutBlack
			}
		}
	}

	fen := s.Board.FEN(s.WhiteToMove)

	outcome := MoveOutcome{
		MatchID:       s.MatchID,
		PlayerID:      playerID,
		FromRow:       *req.FromRow,
		FromCol:       *req.FromCol,
		ToRow:         *req.ToRow,
		ToCol:         *req.ToCol,
		Piece:         req.Piece,
		PlayerColor:   moverColor,
		PromotedTo:    req.PromotedTo,
		CapturedPiece: req.CapturedPiece,
		IsCastle:      req.IsCastle,
		IsEnPassant:   req.IsEnPassant,
		IsPromotion:   req.IsPromotion,
		Notation:      req.Notation(),
		UCI:           moveCode,
		FEN:           fen,
		Board:         s.Board,
		WhiteToMove:   s.WhiteToMove,
		Status:        s.Status,
		Timestamp:     now,
	}

	ctx := context.Background()
	if err := m.store.SaveMove(ctx, s.MatchID, fen, moveCode, s.Ply); err != nil {
		m.logger.Warn("move write failed", zap.String("match_id", s.MatchID), zap.Error(err))
	}
	if timed {
		if err := m.store.SavePlayerClocks(ctx, s.MatchID, s.Player1Remaining, s.Player2Remaining); err != nil {
			m.logger.Warn("clock write failed", zap.String("match_id", s.MatchID), zap.Error(err))
		}
	}

	m.notifier.PublishToMatch(s.MatchID, events.MoveApplied{
		MatchID:     s.MatchID,
		PlayerID:    playerID,
		PlayerColor: string(moverColor),
		FromRow:     *req.FromRow,
		FromCol:     *req.FromCol,
		ToRow:       *req.ToRow,
		ToCol:       *req.ToCol,
		Piece:       req.Piece,
		PromotedTo:  req.PromotedTo,
		Captured:    req.CapturedPiece,
		IsCastle:    req.IsCastle,
		IsEnPassant: req.IsEnPassant,
		IsPromotion: req.IsPromotion,
		Notation:    outcome.Notation,
		UCI:         moveCode,
		FEN:         fen,
		Board:       [8][8]string(s.Board),
		WhiteToMove: s.WhiteToMove,
		Timestamp:   now,
	})

	switch s.Status {
	case StatusTimeoutWhite:
		m.finishLocked(s, StatusPlayer2Won, "white ran out of time")
	case StatusTimeoutBlack:
		m.finishLocked(s, StatusPlayer1Won, "black ran out of time")
	}

	m.logger.Info("applied move",
		zap.String("match_id", s.MatchID),
		zap.String("player", playerID),
		zap.String("notation", outcome.Notation),
		zap.String("uci", moveCode),
		zap.String("status", string(s.Status)))

	return outcome, nil
}

// Resign ends the match in favor of the opponent. Calling it on a match that
// already reached a terminal status fails with ErrGameNotActive.
func (m *Manager) Resign(matchID, playerID string) error {
	s, err := m.EnsureInitialized(matchID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.Terminal() {
		return ErrGameNotActive
	}

	if _, ok := s.playerColor(playerID); !ok {
		return ErrNotAuthorized
	}

	s.Status = StatusResigned

	m.notifier.PublishToMatch(matchID, events.Resignation{
		MatchID:   matchID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
	})

	m.finishLocked(s, StatusResigned, fmt.Sprintf("%s resigned", playerID))

	return nil
}

// OfferDraw sends a draw offer to the opponent only. The session state does
// not change.
func (m *Manager) OfferDraw(matchID, playerID string) error {
	s, err := m.EnsureInitialized(matchID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.Terminal() {
		return ErrGameNotActive
	}

	if _, ok := s.playerColor(playerID); !ok {
		return ErrNotAuthorized
	}

	m.notifier.PublishToPlayer(s.opponentOf(playerID), events.DrawOffer{
		MatchID:   matchID,
		From:      playerID,
		Timestamp: time.Now(),
	})

	return nil
}

// AcceptDraw ends the match as drawn and notifies all participants.
func (m *Manager) AcceptDraw(matchID, playerID string) error {
	s, err := m.EnsureInitialized(matchID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status.Terminal() {
		return ErrGameNotActive
	}

	if _, ok := s.playerColor(playerID); !ok {
		return ErrNotAuthorized
	}

	s.Status = StatusDrawn

	m.notifier.PublishToMatch(matchID, events.DrawAccepted{
		MatchID:   matchID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
	})

	m.finishLocked(s, StatusDrawn, "draw accepted")

	return nil
}

// finishLocked records the terminal result and publishes the termination
// event. storedStatus is what lands in the durable record: timeouts are
// stored as the opponent's win the way the original record format did, while
// the session keeps the timeout status. Caller holds s.mu.
func (m *Manager) finishLocked(s *SessionState, storedStatus Status, reason string) {
	if err := m.store.SaveMatchResult(context.Background(), s.MatchID, string(storedStatus), time.Now()); err != nil {
		m.logger.Warn("match result write failed", zap.String("match_id", s.MatchID), zap.Error(err))
	}

	metrics.GamesEndedTotal.WithLabelValues(string(s.Status)).Inc()

	m.notifier.PublishToMatch(s.MatchID, events.GameEnd{
		MatchID:   s.MatchID,
		Status:    string(s.Status),
		Reason:    reason,
		Timestamp: time.Now(),
	})

	m.logger.Info("match finished",
		zap.String("match_id", s.MatchID),
		zap.String("status", string(s.Status)),
		zap.String("reason", reason))
}

// StartSweeper launches the periodic eviction of idle sessions.
func (m *Manager) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				m.sweepIdle()
			}
		}
	}()
}

func (m *Manager) sweepIdle() {
	cutoff := time.Now().Add(-m.idleAfter)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.LastMoveAt.Before(cutoff)
		s.mu.Unlock()

		if idle {
			delete(m.sessions, id)
			delete(m.configs, id)
			m.logger.Info("evicted idle session", zap.String("match_id", id))
		}
	}

	metrics.ActiveSessions.Set(float64(len(m.sessions)))
}

// Close stops the sweeper.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
