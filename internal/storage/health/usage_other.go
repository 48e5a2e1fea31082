//go:build !(linux || darwin || freebsd)

// Package health probes storage media before the logs mutate them.
package health

import "errors"

// Usage is not available on this platform.
func Usage(path string) (total, used uint64, err error) {
	return 0, 0, errors.New("health: disk usage not supported on this platform")
}
