package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEnvelope(t *testing.T, ch <-chan Envelope) Envelope {
	t.Helper()

	select {
	case env := <-ch:
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return Envelope{}
	}
}

func TestSubscribeReceivesMatchingKind(t *testing.T) {
	p := NewPublisher()

	got := make(chan Envelope, 1)
	p.Subscribe(KindResignation, func(env Envelope) {
		got <- env
	})

	p.PublishToMatch("m1", Resignation{MatchID: "m1", PlayerID: "alice"})

	env := waitForEnvelope(t, got)
	assert.Equal(t, "m1", env.MatchID)

	res, ok := env.Event.(Resignation)
	require.True(t, ok)
	assert.Equal(t, "alice", res.PlayerID)
}

func TestSubscribeIgnoresOtherKinds(t *testing.T) {
	p := NewPublisher()

	got := make(chan Envelope, 1)
	p.Subscribe(KindGameEnd, func(env Envelope) {
		got <- env
	})

	p.PublishToMatch("m1", ChatMessage{MatchID: "m1", From: "alice", Message: "hi"})

	select {
	case <-got:
		t.Fatal("handler fired for a kind it did not subscribe to")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	p := NewPublisher()

	got := make(chan Envelope, 2)
	p.SubscribeAll(func(env Envelope) {
		got <- env
	})

	p.PublishToMatch("m1", DrawAccepted{MatchID: "m1", PlayerID: "bob"})
	p.PublishToPlayer("bob", DrawOffer{MatchID: "m1", From: "alice"})

	kinds := map[Kind]bool{}
	for i := 0; i < 2; i++ {
		env := waitForEnvelope(t, got)
		kinds[env.Event.Kind()] = true
		if env.Event.Kind() == KindDrawOffer {
			assert.Equal(t, "bob", env.PlayerID)
			assert.Empty(t, env.MatchID)
		}
	}

	assert.True(t, kinds[KindDrawAccepted])
	assert.True(t, kinds[KindDrawOffer])
}

func TestEventKinds(t *testing.T) {
	assert.Equal(t, KindMoveApplied, MoveApplied{}.Kind())
	assert.Equal(t, KindPlayerJoined, PlayerJoined{}.Kind())
	assert.Equal(t, KindResignation, Resignation{}.Kind())
	assert.Equal(t, KindDrawOffer, DrawOffer{}.Kind())
	assert.Equal(t, KindDrawAccepted, DrawAccepted{}.Kind())
	assert.Equal(t, KindGameEnd, GameEnd{}.Kind())
	assert.Equal(t, KindChatMessage, ChatMessage{}.Kind())
}
