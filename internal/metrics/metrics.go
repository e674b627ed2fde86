// Package metrics holds the prometheus counters exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "strippers_token_refreshes_total", Help: "Credential refreshes by provider and result"},
		[]string{"provider", "result"},
	)
	ResolverOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "strippers_resolver_outcomes_total", Help: "Unsupported-pair resolutions by outcome"},
		[]string{"outcome"},
	)
	StripperLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "strippers_lookups_total", Help: "Stripper lookups by source"},
		[]string{"source"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "strippers_webhook_events_total", Help: "Webhook deliveries by event and result"},
		[]string{"event", "result"},
	)
	LedgerRemovals = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "strippers_ledger_removed_lines_total", Help: "Ledger lines removed"},
	)
)

func init() {
	prometheus.MustRegister(TokenRefreshes, ResolverOutcomes, StripperLookups, WebhookEvents, LedgerRemovals)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
