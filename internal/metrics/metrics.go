// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClicksRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linktrail_clicks_recorded_total",
			Help: "Total number of clicks written to the click ledger",
		},
	)

	RedirectsDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linktrail_redirects_denied_total",
			Help: "Resolutions refused before a click was recorded",
		},
		[]string{"code"},
	)

	// EnrichmentResults counts finished geo enrichments by outcome:
	// success, miss, error or panic.
	EnrichmentResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linktrail_geo_enrichments_total",
			Help: "Finished geo enrichment tasks by outcome",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linktrail_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linktrail_link_cache_lookups_total",
			Help: "Slug cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	ArchiveDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linktrail_archive_dropped_total",
			Help: "Clicks dropped because the archive buffer was full",
		},
	)

	ArchiveFlushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linktrail_archive_flushed_total",
			Help: "Clicks written to the ClickHouse archive",
		},
	)
)
