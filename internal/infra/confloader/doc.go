// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that layers several
// sources using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Environment variables (AEROSENSE_RING_CAPACITY -> ring.capacity)
//  2. Configuration file (YAML)
//  3. Values already present in the target struct (defaults)
//
// Environment names are resolved against the koanf tags of the target, so
// keys that contain underscores (sd.summary_every) map unambiguously.
//
// The Watcher reports changes to the configuration file so the logger
// level can be reloaded without a restart.
package confloader
