package command

import (
	"bufio"
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage"
	"github.com/yndnr/aerosense-go/internal/storage/ringlog"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
	"github.com/yndnr/aerosense-go/internal/telemetry/logger"
)

// mockLogger is a line-protocol peer on a TCP socket that answers each
// command with scripted reply lines.
type mockLogger struct {
	ln      net.Listener
	mu      sync.Mutex
	replies map[string][]string
	got     []string
}

func newMockLogger(t *testing.T) *mockLogger {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	m := &mockLogger{ln: ln, replies: make(map[string][]string)}
	t.Cleanup(func() { ln.Close() })
	go m.serve()
	return m
}

func (m *mockLogger) addr() string { return m.ln.Addr().String() }

func (m *mockLogger) reply(cmd string, lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[cmd] = lines
}

func (m *mockLogger) received() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.got...)
}

func (m *mockLogger) serve() {
	for {
		conn, err := m.ln.Accept()
		if err != nil {
			return
		}
		go m.handle(conn)
	}
}

func (m *mockLogger) handle(conn net.Conn) {
	defer conn.Close()
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		cmd := strings.TrimSpace(sc.Text())
		if cmd == "" {
			continue
		}
		m.mu.Lock()
		m.got = append(m.got, cmd)
		lines, ok := m.replies[cmd]
		m.mu.Unlock()
		if !ok {
			lines = []string{"ERROR: unknown command '" + strings.ToUpper(cmd) + "'. Send HELP for a list of commands."}
		}
		for _, l := range lines {
			if _, err := conn.Write([]byte(l + "\r\n")); err != nil {
				return
			}
		}
	}
}

// runApp runs the CLI with args against an absent CLI config file and
// returns stdout and stderr.
func runApp(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	return runAppConfig(t, filepath.Join(t.TempDir(), "cli.yaml"), input, args...)
}

func runAppConfig(t *testing.T, cfgPath, input string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(input)

	argv := append([]string{"aerosense-cli", "--config", cfgPath, "--timeout", "2s"}, args...)
	err := app.Run(argv)
	return stdout.String(), stderr.String(), err
}

func testSnapshot(v int32) domain.SensorSnapshot {
	return domain.SensorSnapshot{
		Temperature: 2100 + v,
		Humidity:    4500,
		Pressure:    101325,
		CO2:         400 + v,
		GPS:         domain.GPSFix{Latitude: 48.1, Longitude: 11.5, Satellites: 9, FixType: 3, Valid: true},
	}
}

// writeRing creates a ring image in a temporary directory holding n records.
func writeRing(t *testing.T, capacity uint16, n int) string {
	t.Helper()
	dir := t.TempDir()
	ring, err := ringlog.Open(ringlog.Config{
		Dir:      dir,
		Capacity: capacity,
		Flush:    storage.SyncPolicy(),
		Logger:   logger.Discard(),
		Now:      func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("ringlog.Open() error = %v", err)
	}
	if err := ring.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := 0; i < n; i++ {
		rec := domain.Capture(testSnapshot(int32(i)), ring.NextSequence(), uint32(1700000000+i))
		if _, err := ring.Append(rec); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}
	if err := ring.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return dir
}

// writeCard creates a card mount with one closed flight per entry of counts.
func writeCard(t *testing.T, counts ...int) string {
	t.Helper()
	mount := t.TempDir()
	card, err := sessionlog.Open(sessionlog.Config{
		Mount:  mount,
		Flush:  storage.SyncPolicy(),
		Logger: logger.Discard(),
	})
	if err != nil {
		t.Fatalf("sessionlog.Open() error = %v", err)
	}
	for _, n := range counts {
		if _, err := card.StartSession(); err != nil {
			t.Fatalf("StartSession() error = %v", err)
		}
		for i := 0; i < n; i++ {
			rec := domain.Capture(testSnapshot(int32(i)), card.NextRecordID(), uint32(1700000000+i))
			if err := card.Append(rec); err != nil {
				t.Fatalf("Append(%d) error = %v", i, err)
			}
		}
		if _, _, err := card.EndSession(); err != nil {
			t.Fatalf("EndSession() error = %v", err)
		}
	}
	if err := card.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return mount
}
