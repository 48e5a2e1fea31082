// Package config defines the station configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultStationName = "aerosense"

	DefaultRingDir        = "/var/lib/aerosense/ring"
	DefaultRingCapacity   = 500
	DefaultRingFlushMode  = "batch"
	DefaultRingFlushEvery = 10

	DefaultSDMount        = "/media/sd"
	DefaultSDFlushMode    = "sync"
	DefaultSDSummaryEvery = 50

	DefaultTransportKind = "serial"
	DefaultSerialPort    = "/dev/ttyS0"
	DefaultSerialBaud    = 115200
	DefaultSerialTimeout = time.Second

	DefaultListMax   = 50
	DefaultMaxLine   = 256
	DefaultRateLimit = 20

	DefaultIngestSocket = "/run/aerosense/ingest.sock"
	DefaultMetricsAddr  = "127.0.0.1:9108"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default station configuration.
func Default() *StationConfig {
	return &StationConfig{
		Station: StationSection{
			Name: DefaultStationName,
		},
		Ring: RingSection{
			Dir:      DefaultRingDir,
			Capacity: DefaultRingCapacity,
			Flush: FlushSection{
				Mode:  DefaultRingFlushMode,
				Every: DefaultRingFlushEvery,
			},
		},
		SD: SDSection{
			Mount: DefaultSDMount,
			Flush: FlushSection{
				Mode:  DefaultSDFlushMode,
				Every: 1,
			},
			SummaryEvery: DefaultSDSummaryEvery,
		},
		Transport: TransportSection{
			Kind: DefaultTransportKind,
			Serial: SerialSection{
				Port:     DefaultSerialPort,
				Baud:     DefaultSerialBaud,
				DataBits: 8,
				StopBits: 1,
				Parity:   "N",
				Timeout:  DefaultSerialTimeout,
			},
		},
		Protocol: ProtocolSection{
			StrictArgs: true,
			ListMax:    DefaultListMax,
			MaxLine:    DefaultMaxLine,
			RateLimit:  DefaultRateLimit,
		},
		Ingest: IngestSection{
			Socket: DefaultIngestSocket,
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
