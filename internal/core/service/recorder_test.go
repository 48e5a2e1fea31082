package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage"
	"github.com/yndnr/aerosense-go/internal/storage/health"
	"github.com/yndnr/aerosense-go/internal/storage/ringlog"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
)

func newLogs(t *testing.T) (*ringlog.Log, *sessionlog.Log) {
	t.Helper()
	ready := health.ProberFunc(func() health.State { return health.Ready })

	ring, err := ringlog.Open(ringlog.Config{
		Dir:      t.TempDir(),
		Capacity: 8,
		Flush:    storage.SyncPolicy(),
		Prober:   ready,
	})
	if err != nil {
		t.Fatalf("ringlog.Open() error = %v", err)
	}
	t.Cleanup(func() { ring.Close() })

	sessions, err := sessionlog.Open(sessionlog.Config{
		Mount:  t.TempDir(),
		Prober: ready,
	})
	if err != nil {
		t.Fatalf("sessionlog.Open() error = %v", err)
	}
	t.Cleanup(func() { sessions.Close() })
	return ring, sessions
}

func TestRecorder_Routing(t *testing.T) {
	ring, sessions := newLogs(t)
	r := NewRecorder(ring, sessions, nil, nil)
	r.SetClock(func() time.Time { return time.Unix(1700000000, 0) })
	ctx := context.Background()
	snap := domain.SensorSnapshot{Temperature: 2000}

	res, err := r.Record(ctx, snap)
	if err != nil || res.Target != TargetNone {
		t.Fatalf("Record() while idle = (%+v, %v), want TargetNone", res, err)
	}

	ring.Start()
	res, err = r.Record(ctx, snap)
	if err != nil || res.Target != TargetRing || res.SequenceID != 1 {
		t.Fatalf("Record() while logging = (%+v, %v), want ring seq 1", res, err)
	}

	sessions.StartSession()
	res, err = r.Record(ctx, snap)
	if err != nil || res.Target != TargetSession || res.SequenceID != 1 {
		t.Fatalf("Record() during flight = (%+v, %v), want session id 1", res, err)
	}
	if ring.Status().StoredCount != 1 {
		t.Error("flight record also went to the ring")
	}

	sessions.EndSession()
	res, _ = r.Record(ctx, snap)
	if res.Target != TargetRing || res.SequenceID != 2 {
		t.Errorf("Record() after flight = %+v, want ring seq 2", res)
	}

	rec, err := ring.ReadAt(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Timestamp != 1700000000 || !domain.Verify(rec) {
		t.Errorf("stored record = %+v", rec)
	}
}

func TestRecorder_CancelledContext(t *testing.T) {
	ring, sessions := newLogs(t)
	r := NewRecorder(ring, sessions, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Record(ctx, domain.SensorSnapshot{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Record() error = %v, want context.Canceled", err)
	}
}

type failingSessions struct {
	SessionLog
}

func (failingSessions) Current() (domain.Session, bool) { return domain.Session{Number: 1}, true }
func (failingSessions) NextRecordID() uint32            { return 1 }
func (failingSessions) Append(domain.LogRecord) error   { return domain.ErrStorageUnavailable }

func TestRecorder_SessionFailureNotRedirected(t *testing.T) {
	ring, _ := newLogs(t)
	ring.Start()
	r := NewRecorder(ring, failingSessions{}, nil, nil)

	_, err := r.Record(context.Background(), domain.SensorSnapshot{})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("Record() error = %v, want ErrStorageUnavailable", err)
	}
	if ring.Status().StoredCount != 0 {
		t.Error("failed flight record was written to the ring")
	}
}
