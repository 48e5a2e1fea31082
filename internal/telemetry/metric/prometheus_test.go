// Package metric provides Prometheus metrics for AeroSense.
package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.RecordsAppended == nil || r.CommandsTotal == nil || r.SessionOpen == nil {
		t.Error("metric fields not initialised")
	}
}

func TestGlobal(t *testing.T) {
	if Global() != Global() {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	body := scrape(t, Handler())
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
}

func TestLogMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordAppend("ring")
	r.RecordAppend("ring")
	r.RecordAppend("session")
	r.RecordAppendFailure("session")
	r.IncChecksumMismatch()
	r.SetRingStored(42)

	body := scrape(t, r.Handler())
	for _, want := range []string{
		`aerosense_records_appended_total{log="ring"} 2`,
		`aerosense_records_appended_total{log="session"} 1`,
		`aerosense_append_failures_total{log="session"} 1`,
		"aerosense_checksum_mismatches_total 1",
		"aerosense_ring_stored_records 42",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestSessionMetrics(t *testing.T) {
	r := NewRegistry()

	r.SessionStarted()
	body := scrape(t, r.Handler())
	if !strings.Contains(body, "aerosense_session_open 1") {
		t.Error("expected aerosense_session_open 1")
	}

	r.SessionEnded()
	body = scrape(t, r.Handler())
	if !strings.Contains(body, "aerosense_session_open 0") {
		t.Error("expected aerosense_session_open 0")
	}
	if !strings.Contains(body, "aerosense_sessions_started_total 1") {
		t.Error("expected aerosense_sessions_started_total 1")
	}
	if !strings.Contains(body, "aerosense_sessions_ended_total 1") {
		t.Error("expected aerosense_sessions_ended_total 1")
	}
}

func TestProtocolMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordCommand("STATUS", "ok")
	r.RecordCommand("DOWNLOAD_FLIGHT", "error")
	r.ObserveCommandDuration("STATUS", 0.001)
	r.IncLineDropped()
	r.IncRateLimited()
	r.RecordProbeFailure("sd", "removed")
	r.RecordIngest("ring")

	body := scrape(t, r.Handler())
	for _, want := range []string{
		`aerosense_commands_total{command="STATUS",result="ok"} 1`,
		`aerosense_commands_total{command="DOWNLOAD_FLIGHT",result="error"} 1`,
		"aerosense_command_duration_seconds_count",
		"aerosense_lines_dropped_total 1",
		"aerosense_commands_rate_limited_total 1",
		`aerosense_probe_failures_total{medium="sd",state="removed"} 1`,
		`aerosense_snapshots_ingested_total{target="ring"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry

	// None of these may panic.
	r.RecordAppend("ring")
	r.RecordAppendFailure("ring")
	r.IncChecksumMismatch()
	r.SetRingStored(1)
	r.SessionStarted()
	r.SessionEnded()
	r.RecordProbeFailure("ring", "error")
	r.RecordCommand("STATUS", "ok")
	r.ObserveCommandDuration("STATUS", 1)
	r.IncLineDropped()
	r.IncRateLimited()
	r.RecordIngest("none")
	r.MustRegister(NewCollector(nil))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil registry handler status = %d, want 404", rec.Code)
	}
}

func TestCollector(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(NewCollector(func() []MediumStats {
		return []MediumStats{
			{Medium: "ring", TotalBytes: 4096, UsedBytes: 1024, Ready: true},
			{Medium: "sd", TotalBytes: 0, UsedBytes: 0, Ready: false},
		}
	}))

	body := scrape(t, r.Handler())
	for _, want := range []string{
		`aerosense_medium_total_bytes{medium="ring"} 4096`,
		`aerosense_medium_used_bytes{medium="ring"} 1024`,
		`aerosense_medium_ready{medium="ring"} 1`,
		`aerosense_medium_ready{medium="sd"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.RecordAppend("ring")
				r.RecordCommand("STATUS", "ok")
				r.ObserveCommandDuration("STATUS", 0.001)
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	body := scrape(t, r.Handler())
	if !strings.Contains(body, `aerosense_records_appended_total{log="ring"} 1000`) {
		t.Error("expected 1000 ring appends")
	}
}
