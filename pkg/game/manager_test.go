package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/indichess/live-server/internal/color"
	"github.com/indichess/live-server/pkg/events"
	"github.com/indichess/live-server/pkg/store"
)

// recordingNotifier captures published events synchronously so tests can
// assert on delivery without timing games.
type recordingNotifier struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (n *recordingNotifier) PublishToMatch(matchID string, event events.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.envelopes = append(n.envelopes, events.Envelope{MatchID: matchID, Event: event})
}

func (n *recordingNotifier) PublishToPlayer(playerID string, event events.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.envelopes = append(n.envelopes, events.Envelope{PlayerID: playerID, Event: event})
}

func (n *recordingNotifier) kinds() []events.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()

	kinds := make([]events.Kind, 0, len(n.envelopes))
	for _, env := range n.envelopes {
		kinds = append(kinds, env.Event.Kind())
	}

	return kinds
}

func (n *recordingNotifier) toPlayer(playerID string) []events.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []events.Event
	for _, env := range n.envelopes {
		if env.PlayerID == playerID {
			out = append(out, env.Event)
		}
	}

	return out
}

func newTestManager(t *testing.T) (*Manager, *store.MemoryStore, *recordingNotifier) {
	t.Helper()

	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	m := NewManager(st, notifier, zap.NewNop())
	t.Cleanup(m.Close)

	return m, st, notifier
}

// makeMove builds a move request by relocating the piece on the given board.
func makeMove(b Board, fromRow, fromCol, toRow, toCol int, c color.Color) MoveRequest {
	piece := b[fromRow][fromCol]
	captured := b[toRow][toCol]

	next := b
	next[toRow][toCol] = piece
	next[fromRow][fromCol] = ""

	return MoveRequest{
		FromRow: intPtr(fromRow), FromCol: intPtr(fromCol),
		ToRow: intPtr(toRow), ToCol: intPtr(toCol),
		Piece:         piece,
		PlayerColor:   c,
		CapturedPiece: captured,
		Board:         &next,
	}
}

func TestCreateMatchInitializesSession(t *testing.T) {
	m, st, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeFast)
	require.NoError(t, err)
	require.NotEmpty(t, matchID)

	sum, err := m.Status(matchID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, sum.Status)
	assert.Equal(t, color.White, sum.PlayerColor)
	assert.True(t, sum.IsMyTurn)
	require.NotNil(t, sum.Player1Remaining)
	assert.Equal(t, 180*time.Second, *sum.Player1Remaining)

	sum, err = m.Status(matchID, "bob")
	require.NoError(t, err)
	assert.Equal(t, color.Black, sum.PlayerColor)
	assert.False(t, sum.IsMyTurn)

	cfg, err := st.LoadMatchConfig(context.Background(), matchID)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Player1ID)
	assert.Equal(t, "bob", cfg.Player2ID)
}

func TestUntimedMatchHasNoClocks(t *testing.T) {
	m, _, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	sum, err := m.Status(matchID, "alice")
	require.NoError(t, err)
	assert.Nil(t, sum.Player1Remaining)
	assert.Nil(t, sum.Player2Remaining)
}

func TestApplyMoveAlternatesTurns(t *testing.T) {
	m, st, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	board := StartingBoard()
	outcome, err := m.ApplyMove(matchID, "alice", makeMove(board, 6, 4, 4, 4, color.White))
	require.NoError(t, err)
	assert.Equal(t, "e4", outcome.Notation)
	assert.Equal(t, "e2e4", outcome.UCI)
	assert.False(t, outcome.WhiteToMove)
	assert.Equal(t, StatusInProgress, outcome.Status)

	board = outcome.Board
	outcome, err = m.ApplyMove(matchID, "bob", makeMove(board, 1, 4, 3, 4, color.Black))
	require.NoError(t, err)
	assert.Equal(t, "e5", outcome.Notation)
	assert.True(t, outcome.WhiteToMove)

	assert.Equal(t, 2, st.MoveCount(matchID))

	position, moveCode, ok := st.LastMove(matchID)
	require.True(t, ok)
	assert.Equal(t, "e7e5", moveCode)
	assert.Contains(t, position, " w ")
}

func TestApplyMoveRejectsOutOfTurn(t *testing.T) {
	m, _, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	_, err = m.ApplyMove(matchID, "bob", makeMove(StartingBoard(), 1, 4, 3, 4, color.Black))
	assert.ErrorIs(t, err, ErrInvalidMove)

	// Rejection leaves the session untouched.
	sum, err := m.Status(matchID, "bob")
	require.NoError(t, err)
	assert.True(t, sum.WhiteToMove)
	assert.Equal(t, StartingBoard(), sum.Board)
}

func TestApplyMoveRejectsWrongDeclaredColor(t *testing.T) {
	m, _, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	req := makeMove(StartingBoard(), 6, 4, 4, 4, color.Black)
	_, err = m.ApplyMove(matchID, "alice", req)
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApplyMoveRejectsNonParticipant(t *testing.T) {
	m, _, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	_, err = m.ApplyMove(matchID, "mallory", makeMove(StartingBoard(), 6, 4, 4, 4, color.White))
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestApplyMoveRejectsMissingCoordinates(t *testing.T) {
	m, _, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	req := makeMove(StartingBoard(), 6, 4, 4, 4, color.White)
	req.FromRow = nil
	_, err = m.ApplyMove(matchID, "alice", req)
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestApplyMoveUnknownMatch(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.ApplyMove("missing", "alice", makeMove(StartingBoard(), 6, 4, 4, 4, color.White))
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestConcurrentMovesExactlyOneWins(t *testing.T) {
	m, _, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	req := makeMove(StartingBoard(), 6, 4, 4, 4, color.White)

	const attempts = 8
	errs := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ApplyMove(matchID, "alice", req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidMove)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestResignEndsGame(t *testing.T) {
	m, st, notifier := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	require.NoError(t, m.Resign(matchID, "alice"))

	sum, err := m.Status(matchID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusResigned, sum.Status)
	assert.Equal(t, "RESIGNED", st.MatchStatus(matchID))

	assert.Contains(t, notifier.kinds(), events.KindResignation)
	assert.Contains(t, notifier.kinds(), events.KindGameEnd)

	// Terminal matches reject further mutation.
	assert.ErrorIs(t, m.Resign(matchID, "bob"), ErrGameNotActive)
	_, err = m.ApplyMove(matchID, "alice", makeMove(StartingBoard(), 6, 4, 4, 4, color.White))
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestDrawOfferGoesToOpponentOnly(t *testing.T) {
	m, _, notifier := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	require.NoError(t, m.OfferDraw(matchID, "alice"))

	bobEvents := notifier.toPlayer("bob")
	require.Len(t, bobEvents, 1)
	offer, ok := bobEvents[0].(events.DrawOffer)
	require.True(t, ok)
	assert.Equal(t, "alice", offer.From)

	assert.Empty(t, notifier.toPlayer("alice"))

	// The offer itself changes nothing.
	sum, err := m.Status(matchID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, sum.Status)
}

func TestAcceptDrawEndsGame(t *testing.T) {
	m, st, notifier := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	require.NoError(t, m.OfferDraw(matchID, "alice"))
	require.NoError(t, m.AcceptDraw(matchID, "bob"))

	sum, err := m.Status(matchID, "bob")
	require.NoError(t, err)
	assert.Equal(t, StatusDrawn, sum.Status)
	assert.Equal(t, "DRAWN", st.MatchStatus(matchID))

	assert.Contains(t, notifier.kinds(), events.KindDrawAccepted)
	assert.Contains(t, notifier.kinds(), events.KindGameEnd)
}

func TestFlaggingMoveStillCompletes(t *testing.T) {
	m, st, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeFast)
	require.NoError(t, err)

	m.mu.RLock()
	s := m.sessions[matchID]
	m.mu.RUnlock()

	// White has almost nothing left and the clock last ticked a second ago.
	s.mu.Lock()
	*s.Player1Remaining = 10 * time.Millisecond
	s.LastClockUpdateAt = time.Now().Add(-time.Second)
	s.mu.Unlock()

	outcome, err := m.ApplyMove(matchID, "alice", makeMove(StartingBoard(), 6, 4, 4, 4, color.White))
	require.NoError(t, err)

	assert.Equal(t, StatusTimeoutWhite, outcome.Status)
	assert.Equal(t, "e2e4", outcome.UCI)

	// The durable record stores the opponent's win.
	assert.Equal(t, "PLAYER2_WON", st.MatchStatus(matchID))
	assert.Equal(t, 1, st.MoveCount(matchID))

	_, err = m.ApplyMove(matchID, "bob", makeMove(outcome.Board, 1, 4, 3, 4, color.Black))
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestJoinPublishesPlayerJoined(t *testing.T) {
	m, _, notifier := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	sum, err := m.Join(matchID, "bob")
	require.NoError(t, err)
	assert.Equal(t, color.Black, sum.PlayerColor)

	assert.Contains(t, notifier.kinds(), events.KindPlayerJoined)

	_, err = m.Join(matchID, "mallory")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestSessionRebuildsFromStore(t *testing.T) {
	m, st, _ := newTestManager(t)

	require.NoError(t, st.CreateMatch(context.Background(), "m1", "alice", "bob", "fast"))

	sum, err := m.Join("m1", "alice")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, sum.Status)
	require.NotNil(t, sum.Player1Remaining)
	assert.Equal(t, 180*time.Second, *sum.Player1Remaining)

	_, err = m.Join("nope", "alice")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	m, _, _ := newTestManager(t)

	matchID, err := m.CreateMatch("alice", "bob", ModeUntimed)
	require.NoError(t, err)

	m.mu.RLock()
	s := m.sessions[matchID]
	m.mu.RUnlock()

	s.mu.Lock()
	s.LastMoveAt = time.Now().Add(-3 * time.Hour)
	s.mu.Unlock()

	m.sweepIdle()

	_, err = m.Status(matchID, "alice")
	assert.ErrorIs(t, err, ErrMatchNotFound)

	// The match record survives; joining rebuilds the session fresh.
	sum, err := m.Join(matchID, "alice")
	require.NoError(t, err)
	assert.Equal(t, StartingBoard(), sum.Board)
}
