// Package metrics exposes the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts processed survey turns by the stage the record was
	// in when the turn arrived and the extraction outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulsecheck",
		Name:      "turns_total",
		Help:      "Survey turns processed, by stage and extraction outcome.",
	}, []string{"stage", "outcome"})

	CyclesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulsecheck",
		Name:      "cycles_completed_total",
		Help:      "Survey cycles that reached the completion message.",
	})

	ExtractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulsecheck",
		Name:      "extraction_failures_total",
		Help:      "Extractor calls that errored, timed out, or returned an invalid shape.",
	})

	StoreWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulsecheck",
		Name:      "store_write_failures_total",
		Help:      "Record upserts that failed. Replies are still sent (best effort).",
	})

	TransportFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulsecheck",
		Name:      "transport_failures_total",
		Help:      "Outbound chat messages that failed to send.",
	})

	KickoffsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pulsecheck",
		Name:      "kickoffs_total",
		Help:      "Survey cycles initiated by the scheduler or manual trigger.",
	})
)
