// Package config defines the station configuration structure.
package config

import (
	"strings"

	"github.com/yndnr/aerosense-go/internal/server/cmdserver"
	"github.com/yndnr/aerosense-go/internal/storage"
	"github.com/yndnr/aerosense-go/internal/telemetry/logger"
)

// Policy converts the section into a flush policy. Call Verify first.
func (f FlushSection) Policy() storage.FlushPolicy {
	if storage.SyncMode(f.Mode) == storage.SyncModeBatch {
		return storage.BatchPolicy(f.Every)
	}
	return storage.SyncPolicy()
}

// CommandServer returns the command server configuration.
func (c *StationConfig) CommandServer() *cmdserver.Config {
	s := c.Transport.Serial
	return &cmdserver.Config{
		Kind:   cmdserver.Kind(c.Transport.Kind),
		Listen: c.Transport.Listen,
		Serial: cmdserver.SerialConfig{
			Port:     s.Port,
			BaudRate: s.Baud,
			DataBits: s.DataBits,
			StopBits: s.StopBits,
			Parity:   strings.ToUpper(s.Parity),
			Timeout:  s.Timeout,
		},
		MaxLine:      c.Protocol.MaxLine,
		RateLimit:    c.Protocol.RateLimit,
		WriteTimeout: cmdserver.DefaultConfig().WriteTimeout,
	}
}

// Handler returns the command handler configuration.
func (c *StationConfig) Handler() cmdserver.HandlerConfig {
	return cmdserver.HandlerConfig{
		StrictArgs: c.Protocol.StrictArgs,
		ListMax:    c.Protocol.ListMax,
	}
}

// Logger returns the logger configuration.
func (c *StationConfig) Logger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = c.Log.Format
	return cfg
}
