// Package metrics exposes the orchestrator's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "csagent"

var (
	// TurnsTotal counts finished turns by outcome ("ok" or an error category).
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "turns_total",
		Help:      "Finished turns by outcome.",
	}, []string{"outcome"})

	// TurnTokens observes the token total of each turn.
	TurnTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "turn_tokens",
		Help:      "Tokens consumed per turn.",
		Buckets:   prometheus.ExponentialBuckets(100, 2, 10),
	})

	// QueryRounds observes how many query-generation rounds a turn used.
	QueryRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_rounds",
		Help:      "Query generation rounds per escalated turn.",
		Buckets:   []float64{1, 2, 3, 4, 5},
	})

	// NodeRetries counts retried external calls by node.
	NodeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "node_retries_total",
		Help:      "Retried external calls by graph node.",
	}, []string{"node"})

	// TrustShortCircuits counts turns stopped by the trust gate.
	TrustShortCircuits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trust_short_circuits_total",
		Help:      "Turns terminated by the trust gate.",
	})
)

// ObserveTurn records the outcome of one finished turn.
func ObserveTurn(outcome string, tokens, rounds int) {
	if outcome == "" {
		outcome = "ok"
	}
	TurnsTotal.WithLabelValues(outcome).Inc()
	TurnTokens.Observe(float64(tokens))
	if rounds > 0 {
		QueryRounds.Observe(float64(rounds))
	}
}
