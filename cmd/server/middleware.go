package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey string

const playerIDKey contextKey = "playerID"

// authenticate resolves the caller's bearer token to a player id and stores
// it on the request context. The token comes from the X-Auth-Token header, or
// the token query parameter for WebSocket upgrades where custom headers are
// awkward.
func (app *application) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}

		playerID, ok := app.Auth.PlayerID(token)
		if !ok {
			app.Logger.Warn(
				"Authentication failed",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			w.Header().Set("WWW-Authenticate", "Token")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), playerIDKey, playerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// requestPlayer returns the authenticated player id set by authenticate.
func requestPlayer(r *http.Request) string {
	playerID, _ := r.Context().Value(playerIDKey).(string)
	return playerID
}
