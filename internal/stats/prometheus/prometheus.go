// Package prometheus implements stats.Collector on top of Prometheus metrics.
//
// The CLI is short-lived, so nothing is scraped: [WriteTextfile] dumps a
// registry in the text exposition format for node_exporter's textfile
// collector.
package prometheus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/calvinalkan/dvd/internal/stats"
)

// Collector creates Prometheus metrics on first use and registers them.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

var _ stats.Collector = (*Collector)(nil)

// New returns a Collector registering into registry.
// A nil registry means [prometheus.DefaultRegisterer].
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (c *Collector) IncCounter(name string, delta int64) {
	c.mu.Lock()
	counter := getOrRegister(c.registry, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help(name)})
	})
	c.mu.Unlock()

	counter.Add(float64(delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	c.mu.Lock()
	gauge := getOrRegister(c.registry, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help(name)})
	})
	c.mu.Unlock()

	gauge.Set(float64(value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	c.mu.Lock()
	histogram := getOrRegister(c.registry, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help(name),
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		})
	})
	c.mu.Unlock()

	histogram.Observe(value)
}

// getOrRegister returns the cached metric for name, creating and registering
// it on first use. If the registry already holds a metric of the same type
// under that name, that one is reused. Callers hold c.mu.
func getOrRegister[M prometheus.Collector](reg prometheus.Registerer, cache map[string]M, name string, create func() M) M {
	if m, ok := cache[name]; ok {
		return m
	}

	m := create()

	if err := reg.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise the metric still counts, it just is not exported.
	}

	cache[name] = m

	return m
}

func help(name string) string {
	if h, ok := stats.Help[name]; ok {
		return h
	}

	return name
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}

	return nil
}
