package config

import (
	"fmt"

	"github.com/yndnr/aerosense-go/internal/infra/confloader"
)

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when empty), then AEROSENSE_* environment variables. The
// result is verified.
func Load(path string) (*StationConfig, error) {
	cfg := Default()

	var opts []confloader.Option
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
