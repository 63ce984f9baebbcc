package matchmaking

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/indichess/live-server/pkg/game"
)

// fakeCreator hands out sequential match ids and counts creations.
type fakeCreator struct {
	count atomic.Int64
}

func (f *fakeCreator) CreateMatch(_, _ string, _ game.Mode) (string, error) {
	n := f.count.Add(1)
	return fmt.Sprintf("match-%d", n), nil
}

func newTestQueue(t *testing.T) (*Queue, *fakeCreator) {
	t.Helper()

	creator := &fakeCreator{}
	q := NewQueue(creator, zap.NewNop())
	t.Cleanup(q.Close)

	return q, creator
}

func TestEnqueuePairsSameMode(t *testing.T) {
	q, creator := newTestQueue(t)

	out, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)
	assert.True(t, out.Pending)
	assert.Equal(t, 1, q.WaitingCount())

	out, err = q.EnqueueOrPair("bob", game.ModeFast)
	require.NoError(t, err)
	assert.False(t, out.Pending)
	assert.Equal(t, "match-1", out.MatchID)
	assert.Equal(t, int64(1), creator.count.Load())
	assert.Equal(t, 0, q.WaitingCount())
}

func TestEnqueueDoesNotPairAcrossModes(t *testing.T) {
	q, creator := newTestQueue(t)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)

	out, err := q.EnqueueOrPair("bob", game.ModeMedium)
	require.NoError(t, err)
	assert.True(t, out.Pending)
	assert.Equal(t, int64(0), creator.count.Load())
	assert.Equal(t, 2, q.WaitingCount())
}

func TestEnqueueIsIdempotent(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)

	out, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)
	assert.True(t, out.Pending)
	assert.Equal(t, 1, q.WaitingCount())

	// A player never pairs with themselves.
	assert.Equal(t, 1, q.WaitingCount())
}

func TestBothPlayersPollSameMatchOnce(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)
	out, err := q.EnqueueOrPair("bob", game.ModeFast)
	require.NoError(t, err)

	aliceID, status := q.PollPairing("alice")
	assert.Equal(t, PollMatched, status)
	assert.Equal(t, out.MatchID, aliceID)

	bobID, status := q.PollPairing("bob")
	assert.Equal(t, PollMatched, status)
	assert.Equal(t, out.MatchID, bobID)

	// Each player's claim is single use.
	_, status = q.PollPairing("alice")
	assert.Equal(t, PollNotFound, status)
	_, status = q.PollPairing("bob")
	assert.Equal(t, PollNotFound, status)
}

func TestPollWhileWaiting(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)

	_, status := q.PollPairing("alice")
	assert.Equal(t, PollWaiting, status)

	_, status = q.PollPairing("stranger")
	assert.Equal(t, PollNotFound, status)
}

func TestEnqueueAfterPairReturnsExistingMatch(t *testing.T) {
	q, creator := newTestQueue(t)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)
	out, err := q.EnqueueOrPair("bob", game.ModeFast)
	require.NoError(t, err)

	again, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)
	assert.Equal(t, out.MatchID, again.MatchID)
	assert.Equal(t, int64(1), creator.count.Load())
}

func TestCancelWaiting(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)

	assert.True(t, q.Cancel("alice"))
	assert.Equal(t, 0, q.WaitingCount())

	// Second cancel is a no-op.
	assert.False(t, q.Cancel("alice"))
	assert.False(t, q.Cancel("stranger"))
}

func TestConcurrentEnqueueNoDoubleMatch(t *testing.T) {
	q, creator := newTestQueue(t)

	const players = 16
	var wg sync.WaitGroup
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := q.EnqueueOrPair(fmt.Sprintf("player-%d", n), game.ModeFast)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// An even number of players with one mode pairs off completely.
	assert.Equal(t, int64(players/2), creator.count.Load())
	assert.Equal(t, 0, q.WaitingCount())
}

func TestSweepRemovesStaleEntries(t *testing.T) {
	q, _ := newTestQueue(t)
	q.SetEntryTTL(time.Minute)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)

	q.mu.Lock()
	q.waiting["alice"].EnqueuedAt = time.Now().Add(-2 * time.Minute)
	q.mu.Unlock()

	q.sweepStale()

	assert.Equal(t, 0, q.WaitingCount())
	_, status := q.PollPairing("alice")
	assert.Equal(t, PollNotFound, status)
}

func TestSweepRemovesUnclaimedPairings(t *testing.T) {
	q, _ := newTestQueue(t)
	q.SetEntryTTL(time.Minute)

	_, err := q.EnqueueOrPair("alice", game.ModeFast)
	require.NoError(t, err)
	_, err = q.EnqueueOrPair("bob", game.ModeFast)
	require.NoError(t, err)

	q.mu.Lock()
	for _, p := range q.pairings {
		p.CreatedAt = time.Now().Add(-2 * time.Minute)
	}
	q.mu.Unlock()

	q.sweepStale()

	_, status := q.PollPairing("alice")
	assert.Equal(t, PollNotFound, status)
	_, status = q.PollPairing("bob")
	assert.Equal(t, PollNotFound, status)
}
