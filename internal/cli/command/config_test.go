package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/aerosense-go/internal/cli/config"
)

func TestConfigCommand_Structure(t *testing.T) {
	cmd := ConfigCommand()
	if cmd.Name != "config" {
		t.Errorf("Name = %q, want config", cmd.Name)
	}

	want := map[string][]string{
		"cli":     {"show", "validate", "add-target"},
		"station": {"show", "validate"},
	}
	for _, sub := range cmd.Subcommands {
		names, ok := want[sub.Name]
		if !ok {
			t.Errorf("unexpected subcommand %s", sub.Name)
			continue
		}
		got := make(map[string]bool)
		for _, s := range sub.Subcommands {
			got[s.Name] = true
		}
		for _, n := range names {
			if !got[n] {
				t.Errorf("%s: missing subcommand %s", sub.Name, n)
			}
		}
		delete(want, sub.Name)
	}
	for name := range want {
		t.Errorf("missing subcommand %s", name)
	}
}

func TestConfigCLI_AddTargetAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")

	_, _, err := runAppConfig(t, cfgPath, "", "config", "cli", "add-target", "--default", "bench", "/dev/rfcomm0")
	if err != nil {
		t.Fatalf("add-target error = %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Targets["bench"] != "/dev/rfcomm0" {
		t.Errorf("Targets[bench] = %q, want /dev/rfcomm0", cfg.Targets["bench"])
	}
	if cfg.DefaultTarget != "bench" {
		t.Errorf("DefaultTarget = %q, want bench", cfg.DefaultTarget)
	}

	stdout, stderr, err := runAppConfig(t, cfgPath, "", "-o", "json", "config", "cli", "show")
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(stdout, `"bench": "/dev/rfcomm0"`) {
		t.Errorf("stdout = %q, want saved target", stdout)
	}
	if !strings.Contains(stderr, cfgPath) {
		t.Errorf("stderr = %q, want config path", stderr)
	}

	if _, _, err := runAppConfig(t, cfgPath, "", "config", "cli", "validate"); err != nil {
		t.Errorf("validate error = %v", err)
	}
}

func TestConfigCLI_AddTargetRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing address", []string{"config", "cli", "add-target", "bench"}},
		{"bad scheme", []string{"config", "cli", "add-target", "bench", "ftp://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runApp(t, "", tt.args...); err == nil {
				t.Error("add-target succeeded")
			}
		})
	}
}

func TestConfigCLI_InvalidFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(cfgPath, []byte("default_output: xml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runAppConfig(t, cfgPath, "", "version"); err == nil {
		t.Error("invalid CLI config accepted")
	}
}

func TestConfigStation(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("ring:\n  capacity: 500\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("ring:\n  capacity: 70000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runApp(t, "", "config", "station", "validate", good)
	if err != nil {
		t.Fatalf("validate good error = %v", err)
	}
	if !strings.Contains(stdout, "configuration valid") {
		t.Errorf("stdout = %q", stdout)
	}

	if _, _, err := runApp(t, "", "config", "station", "validate", bad); err == nil {
		t.Error("validate accepted capacity 70000")
	}
	if _, _, err := runApp(t, "", "config", "station", "validate"); err == nil {
		t.Error("validate without a file succeeded")
	}

	stdout, _, err = runApp(t, "", "config", "station", "show", good)
	if err != nil {
		t.Fatalf("show error = %v", err)
	}
	if !strings.Contains(stdout, "capacity: 500") {
		t.Errorf("show output missing capacity:\n%s", stdout)
	}
}
