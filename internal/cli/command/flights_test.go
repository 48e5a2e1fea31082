package command

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
)

func TestFlightsList_Mounted(t *testing.T) {
	mount := writeCard(t, 3, 5)

	stdout, _, err := runApp(t, "", "-o", "json", "flights", "list", "--mount", mount)
	if err != nil {
		t.Fatalf("flights list error = %v", err)
	}
	for _, want := range []string{
		`"name": "flight_0001.csv"`,
		`"record_count": 3`,
		`"name": "flight_0002.csv"`,
		`"record_count": 5`,
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %s:\n%s", want, stdout)
		}
	}
}

func TestFlightsList_Table(t *testing.T) {
	mount := writeCard(t, 2)

	stdout, _, err := runApp(t, "", "flights", "list", "--mount", mount)
	if err != nil {
		t.Fatalf("flights list error = %v", err)
	}
	if !strings.Contains(stdout, "RECORD_COUNT") || !strings.Contains(stdout, "flight_0001.csv") {
		t.Errorf("table output:\n%s", stdout)
	}
}

func TestFlightsVerify(t *testing.T) {
	mount := writeCard(t, 1, 1, 1)

	if _, _, err := runApp(t, "", "flights", "verify", "--mount", mount); err != nil {
		t.Fatalf("verify on an intact card error = %v", err)
	}

	if err := os.Remove(filepath.Join(mount, sessionlog.DataDir, domain.SessionFileName(2))); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := runApp(t, "", "-o", "json", "flights", "verify", "--mount", mount)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 indexed flights missing") {
		t.Fatalf("verify error = %v, want one missing flight", err)
	}
	if !strings.Contains(stdout, `"found": 2`) {
		t.Errorf("stdout = %s", stdout)
	}
}

func TestFlightsExport(t *testing.T) {
	mount := writeCard(t, 4)
	out := filepath.Join(t.TempDir(), "export.csv")

	_, stderr, err := runApp(t, "", "flights", "export", "--mount", mount, "--out", out, "1")
	if err != nil {
		t.Fatalf("flights export error = %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile(filepath.Join(mount, sessionlog.DataDir, domain.SessionFileName(1)))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != strings.ReplaceAll(string(want), "\r\n", "\n") {
		t.Errorf("export differs from the flight file:\n%s\nvs\n%s", got, want)
	}
	if !strings.Contains(stderr, "flight 1: 5 lines") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestFlightsExport_Rejected(t *testing.T) {
	mount := writeCard(t, 1)
	tests := []struct {
		name string
		args []string
	}{
		{"no number", []string{"flights", "export", "--mount", mount}},
		{"zero", []string{"flights", "export", "--mount", mount, "0"}},
		{"too large", []string{"flights", "export", "--mount", mount, "70000"}},
		{"unknown flight", []string{"flights", "export", "--mount", mount, "9"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runApp(t, "", tt.args...); err == nil {
				t.Error("export succeeded")
			}
		})
	}
}

func digestOf(lines ...string) string {
	h := murmur3.New64()
	for _, l := range lines {
		h.Write([]byte(l + "\n"))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func TestFlightsFetch(t *testing.T) {
	body := []string{strings.Join(sessionlog.Header, ","), "1700000000,1,2100"}

	tests := []struct {
		name    string
		end     string
		wantErr string
	}{
		{"verified", fmt.Sprintf("SD_FLIGHT_DATA_END: 2 Lines=2 Digest=%s", digestOf(body...)), ""},
		{"digest mismatch", "SD_FLIGHT_DATA_END: 2 Lines=2 Digest=0000000000000000", "digest mismatch"},
		{"line count", fmt.Sprintf("SD_FLIGHT_DATA_END: 2 Lines=3 Digest=%s", digestOf(body...)), "received 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockLogger(t)
			m.reply("DOWNLOAD_FLIGHT:2", append(append([]string{"SD_FLIGHT_DATA_START: 2"}, body...), tt.end)...)
			out := filepath.Join(t.TempDir(), "f.csv")

			_, _, err := runApp(t, "", "--target", m.addr(), "flights", "fetch", "--out", out, "2")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("fetch error = %v", err)
				}
				got, _ := os.ReadFile(out)
				if string(got) != strings.Join(body, "\n")+"\n" {
					t.Errorf("file = %q", got)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("fetch error = %v, want %q", err, tt.wantErr)
			}
			if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
				t.Errorf("partial file left behind")
			}
		})
	}
}

func TestFlightsFetch_Aborted(t *testing.T) {
	m := newMockLogger(t)
	m.reply("DOWNLOAD_FLIGHT:1", "SD_FLIGHT_DATA_START: 1", "a,b", "SD_ERROR: [AS-STOR-5030] storage unavailable")

	_, _, err := runApp(t, "", "--target", m.addr(), "flights", "fetch", "1")
	if err == nil || !strings.Contains(err.Error(), "download aborted") {
		t.Fatalf("fetch error = %v, want abort", err)
	}
}

func TestFlightsList_Remote(t *testing.T) {
	m := newMockLogger(t)
	m.reply("LIST_FLIGHTS",
		"SD_FLIGHTS: 2",
		"FLIGHT: 1,1700000000,1700000600,120,flight_0001.csv",
		"FLIGHT: 2,1700001000,1700001300,60,flight_0002.csv,MISSING",
		"SD_FLIGHTS_END",
	)

	stdout, _, err := runApp(t, "", "--target", m.addr(), "-o", "json", "flights", "list", "--remote")
	if err != nil {
		t.Fatalf("flights list --remote error = %v", err)
	}
	for _, want := range []string{`"record_count": 120`, `"name": "flight_0002.csv"`, `"missing": true`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %s:\n%s", want, stdout)
		}
	}
}

func TestParseFlightEntry(t *testing.T) {
	tests := []struct {
		entry   string
		want    domain.Session
		wantErr bool
	}{
		{
			entry: "3,10,20,5,flight_0003.csv",
			want:  domain.Session{Number: 3, StartTime: 10, EndTime: 20, RecordCount: 5, Name: "flight_0003.csv"},
		},
		{
			entry: "4,10,0,0,flight_0004.csv,MISSING",
			want:  domain.Session{Number: 4, StartTime: 10, Name: "flight_0004.csv", Missing: true},
		},
		{entry: "1,2,3", wantErr: true},
		{entry: "x,2,3,4,flight_0001.csv", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseFlightEntry(tt.entry)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFlightEntry(%q) error = %v, wantErr %v", tt.entry, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFlightEntry(%q) = %+v, want %+v", tt.entry, got, tt.want)
		}
	}
}
