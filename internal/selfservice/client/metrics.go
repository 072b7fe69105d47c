package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	downstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "package_services",
		Subsystem: "shipping_client",
		Name:      "requests_total",
		Help:      "Total number of downstream shipping service calls by outcome.",
	}, []string{"operation", "outcome"})

	breakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "package_services",
		Subsystem: "shipping_client",
		Name:      "breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
	})
)

const (
	outcomeSuccess      = "success"
	outcomeError        = "error"
	outcomeDuplicate    = "duplicate"
	outcomeNotFound     = "not_found"
	outcomeShortCircuit = "short_circuit"
)
