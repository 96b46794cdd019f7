// Package metrics owns the Prometheus collectors the storefront feeds.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names. Counters keep the _total suffix in the name itself.
const (
	RequestsTotal   = "bisney_requests_total"
	RequestDuration = "bisney_request_duration_seconds"
	InventoryLag    = "bisney_inventory_lag"
	CacheHits       = "bisney_cache_hits_total"
	SimulationMode  = "bisney_simulation_mode"
)

// Label names.
const (
	LabelTenant   = "tenant_id"
	LabelStatus   = "status"
	LabelEndpoint = "endpoint"
	LabelResult   = "result"
	LabelMode     = "mode"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// durationBuckets are the default buckets of the Python prometheus_client,
// which add 75ms, 750ms and 7.5s steps to prometheus.DefBuckets.
var durationBuckets = []float64{.005, .01, .025, .05, .075, .1, .25, .5, .75, 1, 2.5, 5, 7.5, 10}

// Registry holds every collector on its own prometheus.Registry, so tests
// and multiple servers in one process never collide on the default one.
type Registry struct {
	reg *prometheus.Registry

	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec

	primeOnce sync.Once
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		counters: map[string]*prometheus.CounterVec{
			RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: RequestsTotal,
				Help: "Total requests by tenant and status",
			}, []string{LabelTenant, LabelStatus}),
			CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: CacheHits,
				Help: "Cache hit/miss counter",
			}, []string{LabelTenant, LabelResult}),
		},
		histograms: map[string]*prometheus.HistogramVec{
			RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    RequestDuration,
				Help:    "Request duration in seconds",
				Buckets: durationBuckets,
			}, []string{LabelTenant, LabelEndpoint}),
		},
		gauges: map[string]*prometheus.GaugeVec{
			InventoryLag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: InventoryLag,
				Help: "Inventory sync lag in seconds",
			}, []string{LabelTenant}),
			SimulationMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: SimulationMode,
				Help: "1 while the named simulation mode is active",
			}, []string{LabelMode}),
		},
	}
	for _, c := range r.counters {
		r.reg.MustRegister(c)
	}
	for _, h := range r.histograms {
		r.reg.MustRegister(h)
	}
	for _, g := range r.gauges {
		r.reg.MustRegister(g)
	}
	return r
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// IncCounter adds one to the named counter. Unknown names are ignored, as
// are label sets that do not match the counter's labels.
func (r *Registry) IncCounter(name string, labels prometheus.Labels) {
	c, ok := r.counters[name]
	if !ok {
		return
	}
	if m, err := c.GetMetricWith(labels); err == nil {
		m.Inc()
	}
}

// Observe records seconds in the named histogram.
func (r *Registry) Observe(name string, labels prometheus.Labels, seconds float64) {
	h, ok := r.histograms[name]
	if !ok {
		return
	}
	if m, err := h.GetMetricWith(labels); err == nil {
		m.Observe(seconds)
	}
}

// SetGauge sets the named gauge.
func (r *Registry) SetGauge(name string, labels prometheus.Labels, value float64) {
	g, ok := r.gauges[name]
	if !ok {
		return
	}
	if m, err := g.GetMetricWith(labels); err == nil {
		m.Set(value)
	}
}

// Prime creates the success series of RequestsTotal at zero for each
// tenant so dashboards have a line before the first request lands.
func (r *Registry) Prime(tenants ...string) {
	r.primeOnce.Do(func() {
		for _, t := range tenants {
			r.counters[RequestsTotal].WithLabelValues(t, StatusSuccess).Add(0)
		}
	})
}
