package status

import (
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports a Registry to prometheus as gauges
// Metric set is dynamic so the collector is unchecked and Describe sends nothing
type Collector struct {
	reg       *Registry
	namespace string
}

// NewCollector wraps reg, metric names become namespace_key with dots replaced
func NewCollector(reg *Registry, namespace string) *Collector {
	return &Collector{reg: reg, namespace: namespace}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.reg.Ints.Range(func(key string, v *atomic.Int64) {
		ch <- c.gauge(key, float64(v.Load()))
	})
	c.reg.Floats.Range(func(key string, v *AtomicFloat) {
		ch <- c.gauge(key, v.Get())
	})
	c.reg.Bools.Range(func(key string, v *atomic.Bool) {
		val := 0.0
		if v.Load() {
			val = 1
		}
		ch <- c.gauge(key, val)
	})
}

func (c *Collector) gauge(key string, val float64) prometheus.Metric {
	desc := prometheus.NewDesc(MetricName(c.namespace, key), key, nil, nil)
	return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, val)
}

// MetricName converts a dotted registry key into a prometheus metric name
func MetricName(namespace, key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, key)
	if namespace == "" {
		return name
	}
	return namespace + "_" + name
}
