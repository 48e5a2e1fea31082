// Package metric provides Prometheus metrics for AeroSense.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, typed update helpers and the HTTP handler
//   - collector.go: scrape-time collector for medium capacity and health
//
// Metrics include:
//
//   - Records appended and append failures per log
//   - Checksum mismatches found on read
//   - Flight start/end counters and an open-flight gauge
//   - Protocol command counts, latency, dropped and rate-limited lines
//
// Metrics are exposed at /metrics in Prometheus format when enabled.
package metric
