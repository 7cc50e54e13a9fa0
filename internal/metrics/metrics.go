// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submissions counts accepted submits by kind ("created" or "updated").
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outing",
		Name:      "registration_submissions_total",
		Help:      "Registrations accepted into the collection.",
	}, []string{"kind"})

	// RemoteRequests counts remote store calls by operation and outcome.
	RemoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outing",
		Name:      "remote_store_requests_total",
		Help:      "Requests issued to the remote registration store.",
	}, []string{"op", "outcome"})

	// LoadSource records where the collection came from on startup.
	LoadSource = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outing",
		Name:      "collection_loads_total",
		Help:      "Collection loads by source (remote, local, seed).",
	}, []string{"source"})

	Summaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outing",
		Name:      "summary_runs_total",
		Help:      "Summary runs by outcome.",
	}, []string{"outcome"})
)
