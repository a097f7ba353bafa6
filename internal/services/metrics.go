// Package services – Prometheus instrumentation for the reply pipeline.
//
// Label cardinality stays bounded: model IDs come from the static tier table
// and outcomes/reasons from small fixed sets.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// modelCalls counts completion attempts by model and outcome.
	modelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_model_calls_total",
			Help: "Total completion API attempts by model and outcome.",
		},
		[]string{"model", "outcome"},
	)

	// repliesSent counts replies actually delivered to the channel.
	repliesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_replies_sent_total",
			Help: "Total replies sent into the channel.",
		},
	)

	// suppressions counts messages that were admitted but produced no reply,
	// and messages refused at the admission gate, by reason.
	suppressions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_suppressions_total",
			Help: "Total messages suppressed without a reply, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(modelCalls, repliesSent, suppressions)
}
