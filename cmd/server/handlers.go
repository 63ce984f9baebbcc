package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/indichess/live-server/pkg/game"
	"github.com/indichess/live-server/pkg/matchmaking"
	"github.com/indichess/live-server/pkg/messages"
	"github.com/indichess/live-server/pkg/server"
)

type enqueueRequest struct {
	Mode string `json:"mode"`
}

// handleEnqueue handles POST /game: put the caller on the matchmaking queue,
// or pair them immediately when a compatible opponent is waiting.
func (app *application) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayer(r)

	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, http.StatusBadRequest, "BAD_PAYLOAD", "invalid request body")
		return
	}

	outcome, err := app.Queue.EnqueueOrPair(playerID, game.ParseMode(req.Mode))
	if err != nil {
		app.Logger.Error("enqueue failed", zap.String("player", playerID), zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "INTERNAL", "could not enqueue")
		return
	}

	app.writeJSON(w, http.StatusOK, messages.MatchmakingPayload{
		MatchID: outcome.MatchID,
		Waiting: outcome.Pending,
	})
}

// handleCheckMatch handles GET /game/check-match: one-shot poll for the
// caller's pairing.
func (app *application) handleCheckMatch(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayer(r)

	matchID, status := app.Queue.PollPairing(playerID)
	switch status {
	case matchmaking.PollMatched:
		app.writeJSON(w, http.StatusOK, messages.MatchmakingPayload{MatchID: matchID})
	case matchmaking.PollWaiting:
		app.writeJSON(w, http.StatusOK, messages.MatchmakingPayload{Waiting: true})
	default:
		app.writeError(w, http.StatusNotFound, "NOT_QUEUED", "player is not queued or paired")
	}
}

// handleCancelWaiting handles POST /game/cancel-waiting.
func (app *application) handleCancelWaiting(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayer(r)

	removed := app.Queue.Cancel(playerID)

	app.writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// handleGameStatus handles GET /game/{matchId}: the caller's read-only view
// of a live match.
func (app *application) handleGameStatus(w http.ResponseWriter, r *http.Request) {
	playerID := requestPlayer(r)
	matchID := r.PathValue("matchId")

	sum, err := app.Manager.Status(matchID, playerID)
	if err != nil {
		if errors.Is(err, game.ErrMatchNotFound) {
			app.writeError(w, http.StatusNotFound, "MATCH_NOT_FOUND", "no such match")
			return
		}
		app.Logger.Error("status failed", zap.String("match_id", matchID), zap.Error(err))
		app.writeError(w, http.StatusInternalServerError, "INTERNAL", "could not read match")
		return
	}

	app.writeJSON(w, http.StatusOK, server.StatusPayload(sum))
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.Logger.Error("response encode error", zap.Error(err))
	}
}

func (app *application) writeError(w http.ResponseWriter, status int, code, msg string) {
	app.writeJSON(w, status, messages.ErrorPayload{Code: code, Message: msg})
}
