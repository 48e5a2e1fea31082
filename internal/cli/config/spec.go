package config

import "time"

// CLIConfig is the configuration for aerosense-cli.
type CLIConfig struct {
	// DefaultTarget is a target address or the name of an entry in Targets.
	DefaultTarget string `yaml:"default_target" json:"default_target"`
	DefaultOutput string `yaml:"default_output" json:"default_output"` // table, json, yaml

	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Targets maps short names to target addresses.
	Targets map[string]string `yaml:"targets" json:"targets"`

	RingDir     string `yaml:"ring_dir" json:"ring_dir"`
	Mount       string `yaml:"mount" json:"mount"`
	HistoryFile string `yaml:"history_file" json:"history_file"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultTarget: "127.0.0.1:7070",
		DefaultOutput: "table",
		Timeout:       5 * time.Second,
		Targets:       make(map[string]string),
		RingDir:       "/var/lib/aerosense/ring",
		Mount:         "/media/sd",
	}
}

// Resolve maps a target name to its address. Names not in Targets are
// returned unchanged; empty selects DefaultTarget.
func (c *CLIConfig) Resolve(name string) string {
	if name == "" {
		name = c.DefaultTarget
	}
	if addr, ok := c.Targets[name]; ok {
		return addr
	}
	return name
}
