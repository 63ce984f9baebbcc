package game

import (
	"sync"
	"time"

	"github.com/indichess/live-server/internal/color"
)

// Mode is a named time-control configuration. Each mode carries a fixed
// initial clock budget assigned at pairing time.
type Mode string

const (
	ModeUntimed Mode = "untimed"
	ModeFast    Mode = "fast"
	ModeMedium  Mode = "medium"
)

// ParseMode maps a client-supplied mode name onto a known mode, defaulting to
// untimed the way the original treated a missing game type.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeFast:
		return ModeFast
	case ModeMedium:
		return ModeMedium
	default:
		return ModeUntimed
	}
}

// InitialBudget returns the per-player clock budget for the mode. The second
// return value is false for untimed play.
func (m Mode) InitialBudget() (time.Duration, bool) {
	switch m {
	case ModeFast:
		return 180 * time.Second, true
	case ModeMedium:
		return 600 * time.Second, true
	default:
		return 0, false
	}
}

// Status is the lifecycle state of a match. Everything except IN_PROGRESS is
// terminal.
type Status string

const (
	StatusInProgress   Status = "IN_PROGRESS"
	StatusResigned     Status = "RESIGNED"
	StatusDrawn        Status = "DRAWN"
	StatusTimeoutWhite Status = "TIMEOUT_WHITE"
	StatusTimeoutBlack Status = "TIMEOUT_BLACK"
	StatusPlayer1Won   Status = "PLAYER1_WON"
	StatusPlayer2Won   Status = "PLAYER2_WON"
)

// Terminal reports whether the status admits no further mutation.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// MatchConfig is the immutable per-match configuration recorded at pairing
// time.
type MatchConfig struct {
	Mode      Mode
	Player1ID string
	Player2ID string
}

// SessionState is the live, authoritative record for one match. Player1 plays
// white, player2 plays black. All mutation happens under mu, held by the
// manager for the duration of each operation; across different matches the
// sessions are fully independent.
type SessionState struct {
	MatchID string

	Board       Board
	WhiteToMove bool
	Status      Status

	Player1ID string
	Player2ID string

	// Remaining clock budgets; nil for untimed matches.
	Player1Remaining *time.Duration
	Player2Remaining *time.Duration

	Mode Mode
	Ply  int

	LastMoveAt        time.Time
	LastClockUpdateAt time.Time

	mu sync.Mutex
}

func newSessionState(matchID string, cfg MatchConfig) *SessionState {
	now := time.Now()

	s := &SessionState{
		MatchID:           matchID,
		Board:             StartingBoard(),
		WhiteToMove:       true,
		Status:            StatusInProgress,
		Player1ID:         cfg.Player1ID,
		Player2ID:         cfg.Player2ID,
		Mode:              cfg.Mode,
		LastMoveAt:        now,
		LastClockUpdateAt: now,
	}

	if budget, timed := cfg.Mode.InitialBudget(); timed {
		p1, p2 := budget, budget
		s.Player1Remaining = &p1
		s.Player2Remaining = &p2
	}

	return s
}

// playerColor returns the side played by playerID, or false when the player
// is not a participant.
func (s *SessionState) playerColor(playerID string) (color.Color, bool) {
	switch playerID {
	case s.Player1ID:
		return color.White, true
	case s.Player2ID:
		return color.Black, true
	default:
		return "", false
	}
}

func (s *SessionState) opponentOf(playerID string) string {
	if playerID == s.Player1ID {
		return s.Player2ID
	}

	return s.Player1ID
}

// SessionSummary is the read-only view handed to a joining or polling player.
type SessionSummary struct {
	MatchID          string
	Status           Status
	Board            Board
	WhiteToMove      bool
	PlayerColor      color.Color
	IsMyTurn         bool
	FEN              string
	Mode             Mode
	Player1ID        string
	Player2ID        string
	Player1Remaining *time.Duration
	Player2Remaining *time.Duration
}

// summary builds the read-only view for playerID. Caller holds s.mu.
func (s *SessionState) summary(playerID string) SessionSummary {
	playerColor, _ := s.playerColor(playerID)

	isMyTurn := false
	if playerColor.Valid() && !s.Status.Terminal() {
		isMyTurn = playerColor == color.FromWhiteToMove(s.WhiteToMove)
	}

	sum := SessionSummary{
		MatchID:     s.MatchID,
		Status:      s.Status,
		Board:       s.Board,
		WhiteToMove: s.WhiteToMove,
		PlayerColor: playerColor,
		IsMyTurn:    isMyTurn,
		FEN:         s.Board.FEN(s.WhiteToMove),
		Mode:        s.Mode,
		Player1ID:   s.Player1ID,
		Player2ID:   s.Player2ID,
	}

	if s.Player1Remaining != nil {
		p1 := *s.Player1Remaining
		sum.Player1Remaining = &p1
	}
	if s.Player2Remaining != nil {
		p2 := *s.Player2Remaining
		sum.Player2Remaining = &p2
	}

	return sum
}
