package relay

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaflogic_relay_requests_total",
			Help: "Relay requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	pollIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaflogic_relay_poll_iterations",
			Help:    "Number of status polls per assistant run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "leaflogic_relay_run_duration_seconds",
			Help:    "Wall time from run creation to terminal status.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, pollIterations, runDuration)
}
