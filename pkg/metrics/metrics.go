// Package metrics defines the server's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GamesCreated counts games created since process start.
	GamesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avalon_games_created_total",
		Help: "Number of games created.",
	})

	// ActionsTotal counts engine actions by action name and outcome.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avalon_actions_total",
		Help: "Number of game actions applied, by action and outcome.",
	}, []string{"action", "outcome"})

	// Watchers tracks currently connected watch sessions.
	Watchers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "avalon_watchers",
		Help: "Number of connected WebSocket watchers.",
	})
)

// Outcome labels for ActionsTotal.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)
