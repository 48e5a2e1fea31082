package health

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDirProber(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		dir  string
		want State
	}{
		{"ready", dir, Ready},
		{"missing", filepath.Join(dir, "card"), Removed},
		{"not a directory", file, Removed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDirProber(tt.dir, "sd", nil, nil)
			if got := p.Probe(); got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirProber_LeavesNoScratchFile(t *testing.T) {
	dir := t.TempDir()
	NewDirProber(dir, "ring", nil, nil).Probe()

	left, err := filepath.Glob(filepath.Join(dir, ScratchPattern))
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("scratch files left behind: %v", left)
	}
}

func TestDirProber_Concurrent(t *testing.T) {
	dir := t.TempDir()
	p := NewDirProber(dir, "sd", nil, nil)

	const workers, rounds = 4, 500
	var failed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				if p.Probe() != Ready {
					failed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if n := failed.Load(); n != 0 {
		t.Errorf("%d of %d concurrent probes of a healthy medium were not READY", n, workers*rounds)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		NotInitialized: "NOT_INITIALIZED",
		Ready:          "READY",
		Removed:        "CARD_REMOVED",
		Error:          "ERROR",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}

func TestProberFunc(t *testing.T) {
	var p Prober = ProberFunc(func() State { return Error })
	if p.Probe() != Error {
		t.Error("ProberFunc did not forward")
	}
}

func TestUsage(t *testing.T) {
	total, used, err := Usage(t.TempDir())
	if err != nil {
		t.Skipf("usage unavailable: %v", err)
	}
	if total == 0 || used > total {
		t.Errorf("Usage() = (%d, %d), want total > 0 and used <= total", total, used)
	}
}
