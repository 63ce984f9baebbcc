package auth

import "sync"

// TokenAuth maps bearer tokens to player ids. Every request must present a
// token; the resolved player id is the caller's identity everywhere else in
// the server.
type TokenAuth struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewTokenAuth creates token authentication from a token -> player id map.
func NewTokenAuth(tokens map[string]string) *TokenAuth {
	valid := make(map[string]string, len(tokens))
	for token, playerID := range tokens {
		valid[token] = playerID
	}

	return &TokenAuth{tokens: valid}
}

// AddToken registers a token for a player.
func (a *TokenAuth) AddToken(token, playerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens[token] = playerID
}

// RemoveToken revokes a token.
func (a *TokenAuth) RemoveToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, token)
}

// PlayerID resolves a token to a player id.
func (a *TokenAuth) PlayerID(token string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	playerID, ok := a.tokens[token]

	return playerID, ok
}
