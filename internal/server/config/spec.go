// Package config defines the station configuration structure.
package config

import "time"

// StationConfig is the root configuration for aerosense-logger.
type StationConfig struct {
	Station   StationSection   `koanf:"station" json:"station"`
	Ring      RingSection      `koanf:"ring" json:"ring"`
	SD        SDSection        `koanf:"sd" json:"sd"`
	Transport TransportSection `koanf:"transport" json:"transport"`
	Protocol  ProtocolSection  `koanf:"protocol" json:"protocol"`
	Ingest    IngestSection    `koanf:"ingest" json:"ingest"`
	Metrics   MetricsSection   `koanf:"metrics" json:"metrics"`
	Log       LogSection       `koanf:"log" json:"log"`
}

// StationSection identifies the unit.
type StationSection struct {
	Name string `koanf:"name" json:"name"`
}

// FlushSection configures a log's flush policy.
type FlushSection struct {
	// Mode is "sync" (flush every append) or "batch".
	Mode  string `koanf:"mode" json:"mode"`
	Every int    `koanf:"every" json:"every"`
}

// RingSection configures the internal ring log.
type RingSection struct {
	Dir string `koanf:"dir" json:"dir"`
	// Capacity is the number of record slots. Changing it discards the
	// stored records on the next start.
	Capacity int          `koanf:"capacity" json:"capacity"`
	Flush    FlushSection `koanf:"flush" json:"flush"`
}

// SDSection configures the removable-card session log.
type SDSection struct {
	Mount        string       `koanf:"mount" json:"mount"`
	Flush        FlushSection `koanf:"flush" json:"flush"`
	SummaryEvery int          `koanf:"summary_every" json:"summary_every"`
}

// TransportSection configures the command transport.
type TransportSection struct {
	// Kind is serial, tcp, unix or stdio.
	Kind   string        `koanf:"kind" json:"kind"`
	Listen string        `koanf:"listen" json:"listen"`
	Serial SerialSection `koanf:"serial" json:"serial"`
}

// SerialSection configures the UART.
type SerialSection struct {
	Port     string        `koanf:"port" json:"port"`
	Baud     int           `koanf:"baud" json:"baud"`
	DataBits int           `koanf:"data_bits" json:"data_bits"`
	StopBits int           `koanf:"stop_bits" json:"stop_bits"`
	Parity   string        `koanf:"parity" json:"parity"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout"`
}

// ProtocolSection configures command handling.
type ProtocolSection struct {
	StrictArgs bool `koanf:"strict_args" json:"strict_args"`
	ListMax    int  `koanf:"list_max" json:"list_max"`
	MaxLine    int  `koanf:"max_line" json:"max_line"`
	// RateLimit is in commands per second per connection; 0 disables it.
	RateLimit int `koanf:"rate_limit" json:"rate_limit"`
}

// IngestSection configures the snapshot ingest socket.
type IngestSection struct {
	// Socket is the unix socket path; empty disables ingest.
	Socket string `koanf:"socket" json:"socket"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Addr    string `koanf:"addr" json:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
}
