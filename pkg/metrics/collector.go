// Package metrics exposes the gateway's runtime counters and gauges in
// Prometheus exposition format: picks and failures per endpoint, and a
// live in_flight/effective_weight gauge pair sourced from the Health Table
// on every scrape.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelgate/gateway/pkg/health"
)

// Collector owns the gateway's metric registry and the counters the Proxy
// Engine updates directly. Gauges are computed on demand from the Health
// Table at scrape time via a prometheus.Collector implementation, so they
// never drift from the table's live state between scrapes.
type Collector struct {
	registry *prometheus.Registry
	health   *health.Table

	picks    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewCollector builds a Collector backed by its own registry and registers
// every metric, including the gaugeSource that reads live state from
// healthTable on each scrape.
func NewCollector(healthTable *health.Table) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		health:   healthTable,
		picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "picks_total",
			Help:      "Number of times an endpoint was chosen by the picker.",
		}, []string{"endpoint", "group"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "failures_total",
			Help:      "Number of upstream calls to an endpoint that counted against its health.",
		}, []string{"endpoint"}),
	}

	registry.MustRegister(c.picks, c.failures, &gaugeSource{health: healthTable})
	return c
}

// RecordPick increments the pick counter for the chosen endpoint in group.
func (c *Collector) RecordPick(endpoint, group string) {
	c.picks.WithLabelValues(endpoint, group).Inc()
}

// RecordFailure increments the failure counter for an endpoint whose call
// was classified as a health-table failure.
func (c *Collector) RecordFailure(endpoint string) {
	c.failures.WithLabelValues(endpoint).Inc()
}

// Handler returns the HTTP handler to mount at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
}

var (
	inFlightDesc = prometheus.NewDesc(
		"gateway_endpoint_in_flight", "Requests currently in flight against an endpoint.",
		[]string{"endpoint"}, nil,
	)
	effectiveWeightDesc = prometheus.NewDesc(
		"gateway_endpoint_effective_weight", "Current effective weight of an endpoint after failure decay.",
		[]string{"endpoint"}, nil,
	)
)

// gaugeSource is a prometheus.Collector that reads the Health Table
// directly on every Collect call, rather than keeping its own gauges the
// engine would have to remember to update.
type gaugeSource struct {
	health *health.Table
}

func (g *gaugeSource) Describe(ch chan<- *prometheus.Desc) {
	ch <- inFlightDesc
	ch <- effectiveWeightDesc
}

func (g *gaugeSource) Collect(ch chan<- prometheus.Metric) {
	g.health.ForEach(func(name string, effectiveWeight float64, inFlight int64) {
		ch <- prometheus.MustNewConstMetric(inFlightDesc, prometheus.GaugeValue, float64(inFlight), name)
		ch <- prometheus.MustNewConstMetric(effectiveWeightDesc, prometheus.GaugeValue, effectiveWeight, name)
	})
}
