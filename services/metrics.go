package services

import "github.com/prometheus/client_golang/prometheus"

var leaderboardFetches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "leaderboard_fetches_total",
		Help: "Affiliate feed fetches by period and outcome",
	},
	[]string{"period", "outcome"},
)

// RegisterMetrics registers service-level metrics. Call this from main.go
// alongside middleware.InitPrometheus.
func RegisterMetrics() {
	prometheus.MustRegister(leaderboardFetches)
}
