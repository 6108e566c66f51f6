package akinator

import (
	"time"

	"github.com/eolso/akinator/internal/resilience"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeCanceled    = "canceled"
	outcomeCircuitOpen = "circuit_open"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "akinator",
		Name:      "requests_total",
		Help:      "Requests sent to the game service by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "akinator",
		Name:      "request_duration_seconds",
		Help:      "Latency of requests to the game service",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	circuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "akinator",
		Name:      "circuit_breaker_open",
		Help:      "1 while the upstream circuit breaker is open or half-open",
	}, []string{"name"})

	gamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "akinator",
		Name:      "games_started_total",
		Help:      "Games successfully started",
	})

	propositionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "akinator",
		Name:      "propositions_total",
		Help:      "Propositions returned by the game service",
	})
)

func observeRequest(endpoint, outcome string, d time.Duration) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	if d > 0 {
		requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

func observeCircuitState(name string, state resilience.State) {
	v := 0.0
	if state != resilience.StateClosed {
		v = 1
	}
	circuitState.WithLabelValues(name).Set(v)
}
