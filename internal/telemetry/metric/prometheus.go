// Package metric provides Prometheus metrics for AeroSense.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aerosense"

// Registry holds all application metrics.
//
// Every method is safe on a nil *Registry so components can run without
// metrics wired in.
type Registry struct {
	registry *prometheus.Registry

	// Log metrics
	RecordsAppended    *prometheus.CounterVec
	AppendFailures     *prometheus.CounterVec
	ChecksumMismatches prometheus.Counter
	RingStored         prometheus.Gauge

	// Session metrics
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	SessionOpen     prometheus.Gauge

	// Health metrics
	ProbeFailures *prometheus.CounterVec

	// Protocol metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	LinesDropped    prometheus.Counter
	CommandsLimited prometheus.Counter

	// Ingest metrics
	SnapshotsIngested *prometheus.CounterVec
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler serves the process-wide registry.
func Handler() http.Handler {
	return Global().Handler()
}

// NewRegistry creates a registry with Go and process collectors attached.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RecordsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_appended_total",
			Help:      "Records accepted per log.",
		}, []string{"log"}),
		AppendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "append_failures_total",
			Help:      "Appends rejected by a storage failure, per log.",
		}, []string{"log"}),
		ChecksumMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checksum_mismatches_total",
			Help:      "Stored records that failed verification on read.",
		}),
		RingStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ring",
			Name:      "stored_records",
			Help:      "Records currently held by the ring log.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Flights started on removable storage.",
		}),
		SessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Flights ended on removable storage.",
		}),
		SessionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_open",
			Help:      "1 while a flight is open.",
		}),
		ProbeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Failed storage health probes by medium and state.",
		}, []string{"medium", "state"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Protocol commands dispatched.",
		}, []string{"command", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Protocol command latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"command"}),
		LinesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_dropped_total",
			Help:      "Command lines discarded for exceeding the maximum length.",
		}),
		CommandsLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_rate_limited_total",
			Help:      "Command lines rejected by the intake limiter.",
		}),
		SnapshotsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_ingested_total",
			Help:      "Snapshots received on the ingest socket.",
		}, []string{"target"}),
	}

	reg.MustRegister(
		r.RecordsAppended,
		r.AppendFailures,
		r.ChecksumMismatches,
		r.RingStored,
		r.SessionsStarted,
		r.SessionsEnded,
		r.SessionOpen,
		r.ProbeFailures,
		r.CommandsTotal,
		r.CommandDuration,
		r.LinesDropped,
		r.CommandsLimited,
		r.SnapshotsIngested,
	)
	return r
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// MustRegister attaches additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.registry.MustRegister(cs...)
}

// RecordAppend counts an accepted record.
func (r *Registry) RecordAppend(log string) {
	if r == nil {
		return
	}
	r.RecordsAppended.WithLabelValues(log).Inc()
}

// RecordAppendFailure counts an append that hit storage.
func (r *Registry) RecordAppendFailure(log string) {
	if r == nil {
		return
	}
	r.AppendFailures.WithLabelValues(log).Inc()
}

// IncChecksumMismatch counts a record that failed verification.
func (r *Registry) IncChecksumMismatch() {
	if r == nil {
		return
	}
	r.ChecksumMismatches.Inc()
}

// SetRingStored reports the ring log's stored count.
func (r *Registry) SetRingStored(n int) {
	if r == nil {
		return
	}
	r.RingStored.Set(float64(n))
}

// SessionStarted records a flight start.
func (r *Registry) SessionStarted() {
	if r == nil {
		return
	}
	r.SessionsStarted.Inc()
	r.SessionOpen.Set(1)
}

// SessionEnded records a flight end, including one abandoned by a format.
func (r *Registry) SessionEnded() {
	if r == nil {
		return
	}
	r.SessionsEnded.Inc()
	r.SessionOpen.Set(0)
}

// RecordProbeFailure counts a health probe that did not report ready.
func (r *Registry) RecordProbeFailure(medium, state string) {
	if r == nil {
		return
	}
	r.ProbeFailures.WithLabelValues(medium, state).Inc()
}

// RecordCommand counts a dispatched command.
func (r *Registry) RecordCommand(command, result string) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(command, result).Inc()
}

// ObserveCommandDuration records command latency in seconds.
func (r *Registry) ObserveCommandDuration(command string, seconds float64) {
	if r == nil {
		return
	}
	r.CommandDuration.WithLabelValues(command).Observe(seconds)
}

// IncLineDropped counts an over-length command line.
func (r *Registry) IncLineDropped() {
	if r == nil {
		return
	}
	r.LinesDropped.Inc()
}

// IncRateLimited counts a command rejected by the limiter.
func (r *Registry) IncRateLimited() {
	if r == nil {
		return
	}
	r.CommandsLimited.Inc()
}

// RecordIngest counts a snapshot routed to target ("ring", "session", "none" or "error").
func (r *Registry) RecordIngest(target string) {
	if r == nil {
		return
	}
	r.SnapshotsIngested.WithLabelValues(target).Inc()
}
