package events

import "sync"

// Envelope pairs an event with its addressing. PlayerID is set for
// point-to-point delivery; otherwise MatchID names the broadcast topic.
type Envelope struct {
	MatchID  string
	PlayerID string
	Event    Event
}

// Handler is a function that processes event envelopes.
type Handler func(Envelope)

// Publisher is the central in-process event publisher. It implements Notifier
// and fans deliveries out to subscribed handlers.
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[Kind][]Handler
	all         []Handler
}

// NewPublisher creates a new event publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[Kind][]Handler),
	}
}

// Subscribe registers a handler for a specific event kind.
func (p *Publisher) Subscribe(kind Kind, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers[kind] = append(p.subscribers[kind], handler)
}

// SubscribeAll registers a handler for every event kind.
func (p *Publisher) SubscribeAll(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.all = append(p.all, handler)
}

// PublishToMatch broadcasts an event on the match topic.
func (p *Publisher) PublishToMatch(matchID string, event Event) {
	p.publish(Envelope{MatchID: matchID, Event: event})
}

// PublishToPlayer delivers an event to a single player.
func (p *Publisher) PublishToPlayer(playerID string, event Event) {
	p.publish(Envelope{PlayerID: playerID, Event: event})
}

func (p *Publisher) publish(env Envelope) {
	p.mu.RLock()
	handlers := p.subscribers[env.Event.Kind()]
	all := p.all
	p.mu.RUnlock()

	// Handlers run concurrently so a slow sink never stalls the caller.
	for _, handler := range handlers {
		go handler(env)
	}
	for _, handler := range all {
		go handler(env)
	}
}
