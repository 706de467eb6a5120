// services/metrics.go
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	chainInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "poh_chain_invocations_total", Help: "Contract invocations by action and outcome"},
		[]string{"action", "outcome"},
	)
	chainConfirmSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poh_chain_confirm_seconds",
			Help:    "Time from send to receipt",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"action"},
	)
	showerWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "poh_shower_writes_total", Help: "Shower dual-write outcomes"},
		[]string{"outcome"},
	)
	notificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "poh_notifications_dropped_total", Help: "Notifications dropped for slow subscribers"},
	)
	gamesSettled = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "poh_games_settled_total", Help: "Games settled by the scheduler"},
	)
)

// RegisterMetrics adds the service collectors to the default registry.
func RegisterMetrics() {
	prometheus.MustRegister(chainInvocations, chainConfirmSeconds, showerWrites, notificationsDropped, gamesSettled)
}
