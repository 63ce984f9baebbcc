package main

import (
	"net/http"

	"github.com/indichess/live-server/pkg/metrics"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", app.handleHealth)
	metrics.Register(mux)

	mux.HandleFunc("POST /game", app.authenticate(app.handleEnqueue))
	mux.HandleFunc("GET /game/check-match", app.authenticate(app.handleCheckMatch))
	mux.HandleFunc("POST /game/cancel-waiting", app.authenticate(app.handleCancelWaiting))
	mux.HandleFunc("GET /game/{matchId}", app.authenticate(app.handleGameStatus))

	mux.HandleFunc("/ws", app.authenticate(app.handleWebSocket))

	return mux
}
