// Package health probes storage media before the logs mutate them.
package health

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/yndnr/aerosense-go/internal/telemetry/metric"
)

// State is the outcome of a probe.
type State int

const (
	NotInitialized State = iota
	Ready
	Removed
	Error
)

// String returns the name used on the wire (SD_STATUS, STATUS).
func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Removed:
		return "CARD_REMOVED"
	case Error:
		return "ERROR"
	default:
		return "NOT_INITIALIZED"
	}
}

// ScratchPattern names the file each probe writes and removes. Every probe
// gets its own file so concurrent probes of one medium do not collide.
const ScratchPattern = ".health_probe-*.tmp"

var scratchPayload = []byte("aerosense health probe\n")

// Prober reports the current state of one medium.
type Prober interface {
	Probe() State
}

// ProberFunc adapts a function to Prober.
type ProberFunc func() State

// Probe implements Prober.
func (f ProberFunc) Probe() State { return f() }

// DirProber probes a directory-backed medium (a mount point).
type DirProber struct {
	Dir     string
	Medium  string
	Logger  *slog.Logger
	Metrics *metric.Registry
}

// NewDirProber creates a prober for dir. medium labels logs and metrics.
func NewDirProber(dir, medium string, logger *slog.Logger, metrics *metric.Registry) *DirProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirProber{Dir: dir, Medium: medium, Logger: logger, Metrics: metrics}
}

// Probe implements Prober.
func (p *DirProber) Probe() State {
	state, err := p.probe()
	if state != Ready {
		p.Logger.Warn("storage probe failed",
			"medium", p.Medium,
			"dir", p.Dir,
			"state", state.String(),
			"error", err,
		)
		p.Metrics.RecordProbeFailure(p.Medium, state.String())
	}
	return state
}

func (p *DirProber) probe() (State, error) {
	info, err := os.Stat(p.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Removed, err
	}
	if err != nil {
		return Error, err
	}
	if !info.IsDir() {
		return Removed, errors.New("not a directory")
	}

	f, err := os.CreateTemp(p.Dir, ScratchPattern)
	if err != nil {
		return Error, err
	}
	path := f.Name()
	_, err = f.Write(scratchPayload)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return Error, err
	}
	if err := os.Remove(path); err != nil {
		return Error, err
	}
	return Ready, nil
}
