// Package metric provides Prometheus metrics for AeroSense.
package metric

import "github.com/prometheus/client_golang/prometheus"

// MediumStats is a point-in-time view of one storage medium.
type MediumStats struct {
	Medium     string
	TotalBytes uint64
	UsedBytes  uint64
	Ready      bool
}

// MediumSource reports the current medium stats. It is called on every scrape.
type MediumSource func() []MediumStats

// Collector exports medium capacity and health at scrape time.
type Collector struct {
	source MediumSource

	total *prometheus.Desc
	used  *prometheus.Desc
	ready *prometheus.Desc
}

// NewCollector creates a collector backed by source.
func NewCollector(source MediumSource) *Collector {
	labels := []string{"medium"}
	return &Collector{
		source: source,
		total:  prometheus.NewDesc(namespace+"_medium_total_bytes", "Medium capacity in bytes.", labels, nil),
		used:   prometheus.NewDesc(namespace+"_medium_used_bytes", "Medium bytes in use.", labels, nil),
		ready:  prometheus.NewDesc(namespace+"_medium_ready", "1 when the medium passed its last probe.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.used
	ch <- c.ready
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	for _, s := range c.source() {
		ready := 0.0
		if s.Ready {
			ready = 1
		}
		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalBytes), s.Medium)
		ch <- prometheus.MustNewConstMetric(c.used, prometheus.GaugeValue, float64(s.UsedBytes), s.Medium)
		ch <- prometheus.MustNewConstMetric(c.ready, prometheus.GaugeValue, ready, s.Medium)
	}
}
