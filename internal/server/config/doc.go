// Package config provides the station configuration for AeroSense.
//
// This package defines the configuration structure and validation:
//
//   - spec.go: StationConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (ranges, enumerations, required paths)
//   - convert.go: Translation into the component configurations
//
// Configuration is loaded via internal/infra/confloader and supports
// files and environment variables.
package config
