// Package metrics exposes Prometheus instrumentation for the live server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PairingsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liveserver_pairings_total",
			Help: "Total matches created by the matchmaking queue",
		},
	)

	MovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveserver_moves_total",
			Help: "Total move submissions",
		},
		[]string{"result"}, // accepted|rejected
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "liveserver_active_sessions",
			Help: "Number of live match sessions held in memory",
		},
	)

	GamesEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liveserver_games_ended_total",
			Help: "Terminal transitions by final status",
		},
		[]string{"status"},
	)

	StoreWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liveserver_store_write_failures_total",
			Help: "Best-effort store writes that were dropped or failed",
		},
	)
)

func init() {
	prometheus.MustRegister(PairingsTotal)
	prometheus.MustRegister(MovesTotal)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(GamesEndedTotal)
	prometheus.MustRegister(StoreWriteFailures)
}

// Register mounts the metrics handler on the given mux.
func Register(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
