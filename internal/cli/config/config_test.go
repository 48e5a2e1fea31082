package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DefaultOutput != "table" {
		t.Errorf("DefaultOutput = %q, want table", cfg.DefaultOutput)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Targets == nil {
		t.Error("Targets should not be nil")
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate(Default()) = %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	if p := DefaultConfigPath(); !strings.HasSuffix(p, filepath.Join(".aerosense", "cli.yaml")) {
		t.Errorf("DefaultConfigPath() = %q", p)
	}
	if p := DefaultHistoryPath(); !strings.HasSuffix(p, filepath.Join(".aerosense", "history")) {
		t.Errorf("DefaultHistoryPath() = %q", p)
	}
}

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultTarget != Default().DefaultTarget {
		t.Errorf("Load() of missing file should return defaults, got %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := `default_target: drone
default_output: yaml
timeout: 2s
targets:
  drone: /dev/rfcomm0
  bench: tcp://10.0.0.5:7070
mount: /mnt/card
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultOutput != "yaml" || cfg.Timeout != 2*time.Second || cfg.Mount != "/mnt/card" {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.RingDir != Default().RingDir {
		t.Errorf("RingDir = %q, want default kept", cfg.RingDir)
	}

	tests := map[string]string{
		"":               "/dev/rfcomm0",
		"bench":          "tcp://10.0.0.5:7070",
		"127.0.0.1:7070": "127.0.0.1:7070",
	}
	for in, want := range tests {
		if got := cfg.Resolve(in); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":  "default_output: [",
		"format":  "default_output: xml\n",
		"timeout": "timeout: -1s\n",
		"target":  "targets:\n  drone: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cli.yaml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cli.yaml")
	cfg := Default()
	cfg.Targets["drone"] = "/dev/rfcomm0"
	cfg.Timeout = 1500 * time.Millisecond

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Targets["drone"] != "/dev/rfcomm0" || got.Timeout != cfg.Timeout {
		t.Errorf("round trip = %+v", got)
	}
}
