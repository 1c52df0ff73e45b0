package geo

import (
	"context"
	"log/slog"
	"sync"

	"linktrail/internal/metrics"
)

// Enricher attaches a lookup result to a click. It is best effort: every
// failure is logged and dropped, and the row is left as it was.
type Enricher struct {
	lookup Lookup
	clicks ClickUpdater
	logger *slog.Logger
}

func NewEnricher(lookup Lookup, clicks ClickUpdater, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{lookup: lookup, clicks: clicks, logger: logger}
}

func (e *Enricher) Enrich(ctx context.Context, clickID, ip string) {
	loc, err := e.lookup.Lookup(ctx, ip)
	if err != nil {
		e.logger.Debug("geo lookup failed", "click_id", clickID, "error", err)
		metrics.EnrichmentResults.WithLabelValues("miss").Inc()
		return
	}
	if loc.empty() {
		metrics.EnrichmentResults.WithLabelValues("miss").Inc()
		return
	}

	if err := e.clicks.SetClickLocation(ctx, clickID, optional(loc.Country), optional(loc.City)); err != nil {
		e.logger.Warn("failed to store click location", "click_id", clickID, "error", err)
		metrics.EnrichmentResults.WithLabelValues("error").Inc()
		return
	}
	metrics.EnrichmentResults.WithLabelValues("success").Inc()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Dispatcher runs enrichments in their own goroutines. Callers never wait
// for a dispatched task; Wait exists for shutdown draining and tests.
type Dispatcher struct {
	enricher *Enricher
	wg       sync.WaitGroup
}

func NewDispatcher(enricher *Enricher) *Dispatcher {
	return &Dispatcher{enricher: enricher}
}

func (d *Dispatcher) Dispatch(clickID, ip string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.enricher.logger.Error("geo enrichment panicked", "click_id", clickID, "panic", r)
				metrics.EnrichmentResults.WithLabelValues("panic").Inc()
			}
		}()
		d.enricher.Enrich(context.Background(), clickID, ip)
	}()
}

// Wait blocks until every dispatched enrichment has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
