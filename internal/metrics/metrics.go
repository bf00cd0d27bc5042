// Package metrics exposes activation and store counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	TriggerInitial = "initial"
	TriggerTimer   = "timer"
)

// Recorder is what the scheduler and session report into.
type Recorder interface {
	RecordActivation(kind, trigger string)
	RecordOpenFailure(kind string)
	RecordCancellations(n int)
	SetActiveChains(n int)
	RecordStoreSave(backend string, err error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordActivation(string, string) {}
func (Nop) RecordOpenFailure(string)        {}
func (Nop) RecordCancellations(int)         {}
func (Nop) SetActiveChains(int)             {}
func (Nop) RecordStoreSave(string, error)   {}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	activations   *prometheus.CounterVec
	openFailures  *prometheus.CounterVec
	cancellations prometheus.Counter
	activeChains  prometheus.Gauge
	storeSaves    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mysa_activations_total",
			Help: "Opener invocations by reference kind and trigger.",
		}, []string{"kind", "trigger"}),
		openFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mysa_open_failures_total",
			Help: "Opener invocations that failed, by reference kind.",
		}, []string{"kind"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mysa_chain_cancellations_total",
			Help: "Recurrence chains cancelled by stop-all.",
		}),
		activeChains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mysa_active_chains",
			Help: "Recurrence chains currently queued, armed or firing.",
		}),
		storeSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mysa_store_saves_total",
			Help: "Entry store saves by backend and result.",
		}, []string{"backend", "result"}),
	}

	reg.MustRegister(
		c.activations,
		c.openFailures,
		c.cancellations,
		c.activeChains,
		c.storeSaves,
	)

	return c
}

func (c *Collector) RecordActivation(kind, trigger string) {
	c.activations.WithLabelValues(kind, trigger).Inc()
}

func (c *Collector) RecordOpenFailure(kind string) {
	c.openFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordCancellations(n int) {
	c.cancellations.Add(float64(n))
}

func (c *Collector) SetActiveChains(n int) {
	c.activeChains.Set(float64(n))
}

func (c *Collector) RecordStoreSave(backend string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.storeSaves.WithLabelValues(backend, result).Inc()
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
