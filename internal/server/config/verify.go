// Package config defines the station configuration structure.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/yndnr/aerosense-go/internal/storage"
	"github.com/yndnr/aerosense-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *StationConfig) error {
	if err := verifyRing(&cfg.Ring); err != nil {
		return err
	}
	if err := verifySD(&cfg.SD); err != nil {
		return err
	}
	if err := verifyTransport(&cfg.Transport); err != nil {
		return err
	}
	if err := verifyProtocol(&cfg.Protocol); err != nil {
		return err
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	return verifyLog(&cfg.Log)
}

func verifyRing(cfg *RingSection) error {
	if cfg.Dir == "" {
		return errors.New("ring.dir is required")
	}
	if cfg.Capacity < 1 || cfg.Capacity > math.MaxUint16 {
		return fmt.Errorf("ring.capacity must be between 1 and %d, got %d", math.MaxUint16, cfg.Capacity)
	}
	return verifyFlush("ring.flush", cfg.Flush)
}

func verifySD(cfg *SDSection) error {
	if cfg.Mount == "" {
		return errors.New("sd.mount is required")
	}
	if cfg.SummaryEvery < 1 {
		return errors.New("sd.summary_every must be at least 1")
	}
	return verifyFlush("sd.flush", cfg.Flush)
}

func verifyFlush(key string, f FlushSection) error {
	if _, err := storage.ParseSyncMode(f.Mode); err != nil {
		return fmt.Errorf("%s.mode: unknown flush mode %q (want sync or batch)", key, f.Mode)
	}
	if f.Every < 1 {
		return fmt.Errorf("%s.every must be at least 1", key)
	}
	return nil
}

func verifyTransport(cfg *TransportSection) error {
	switch cfg.Kind {
	case "serial":
		return verifySerial(&cfg.Serial)
	case "tcp", "unix":
		if cfg.Listen == "" {
			return fmt.Errorf("transport.listen is required for %s transport", cfg.Kind)
		}
	case "stdio":
	default:
		return fmt.Errorf("transport.kind: unknown transport %q (want serial, tcp, unix or stdio)", cfg.Kind)
	}
	return nil
}

func verifySerial(cfg *SerialSection) error {
	if cfg.Port == "" {
		return errors.New("transport.serial.port is required for serial transport")
	}
	if cfg.Baud <= 0 {
		return errors.New("transport.serial.baud must be positive")
	}
	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return fmt.Errorf("transport.serial.data_bits must be 5..8, got %d", cfg.DataBits)
	}
	if cfg.StopBits != 1 && cfg.StopBits != 2 {
		return fmt.Errorf("transport.serial.stop_bits must be 1 or 2, got %d", cfg.StopBits)
	}
	switch strings.ToUpper(cfg.Parity) {
	case "N", "E", "O":
	default:
		return fmt.Errorf("transport.serial.parity must be N, E or O, got %q", cfg.Parity)
	}
	if cfg.Timeout <= 0 {
		return errors.New("transport.serial.timeout must be positive")
	}
	return nil
}

func verifyProtocol(cfg *ProtocolSection) error {
	if cfg.MaxLine < 1 {
		return errors.New("protocol.max_line must be at least 1")
	}
	if cfg.ListMax < 0 {
		return errors.New("protocol.list_max must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("protocol.rate_limit must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console", "":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
