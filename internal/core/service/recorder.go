// Package service provides domain services for AeroSense.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage/ringlog"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
	"github.com/yndnr/aerosense-go/internal/telemetry/metric"
)

// RingLog is the internal-storage log as seen by services and the protocol.
type RingLog interface {
	Start() error
	Stop() error
	Mode() ringlog.Mode
	NextSequence() uint32
	Append(rec domain.LogRecord) (uint32, error)
	BeginDownload() (ringlog.Download, error)
	EndDownload() error
	ReadAt(i int) (domain.LogRecord, error)
	Clear() error
	Status() ringlog.Status
}

// SessionLog is the removable-storage log as seen by services and the protocol.
type SessionLog interface {
	StartSession() (domain.Session, error)
	EndSession() (domain.Session, bool, error)
	Current() (domain.Session, bool)
	NextRecordID() uint32
	Append(rec domain.LogRecord) error
	ListSessions(limit int) ([]domain.Session, error)
	DownloadSession(number uint16, sink sessionlog.LineSink) (sessionlog.DownloadSummary, error)
	DeleteSession(number uint16) error
	VerifyIntegrity() (sessionlog.IntegrityReport, error)
	FormatStorage() error
	Status() sessionlog.Status
}

// Target names where a snapshot went.
type Target string

const (
	TargetRing    Target = "ring"
	TargetSession Target = "session"
	TargetNone    Target = "none"
)

// Result describes one recorded snapshot.
type Result struct {
	Target     Target `json:"target"`
	SequenceID uint32 `json:"sequence_id"`
}

// Recorder captures snapshots into whichever log is active: the open
// flight when there is one, the ring log otherwise.
type Recorder struct {
	mu sync.Mutex

	ring     RingLog
	sessions SessionLog
	logger   *slog.Logger
	metrics  *metric.Registry
	now      func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(ring RingLog, sessions SessionLog, logger *slog.Logger, metrics *metric.Registry) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		ring:     ring,
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source.
func (r *Recorder) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Record captures snapshot and appends it to the active log. When neither
// a flight is open nor the ring is logging, the snapshot is dropped and
// the result target is TargetNone.
func (r *Recorder) Record(ctx context.Context, snapshot domain.SensorSnapshot) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ts := uint32(r.now().Unix())

	if r.sessions != nil {
		if _, open := r.sessions.Current(); open {
			rec := domain.Capture(snapshot, r.sessions.NextRecordID(), ts)
			err := r.sessions.Append(rec)
			switch {
			case err == nil:
				r.metrics.RecordIngest(string(TargetSession))
				return Result{Target: TargetSession, SequenceID: rec.SequenceID}, nil
			case errors.Is(err, domain.ErrSessionNotOpen):
				// ended between the check and the append; fall through to the ring
			default:
				r.metrics.RecordIngest("error")
				r.logger.Error("session append failed", "error", err)
				return Result{}, err
			}
		}
	}

	rec := domain.Capture(snapshot, r.ring.NextSequence(), ts)
	seq, err := r.ring.Append(rec)
	if err != nil {
		r.metrics.RecordIngest("error")
		r.logger.Error("ring append failed", "sequence_id", rec.SequenceID, "error", err)
		return Result{}, err
	}
	if seq == 0 {
		r.metrics.RecordIngest(string(TargetNone))
		r.logger.Debug("snapshot dropped, not logging", "mode", r.ring.Mode().String())
		return Result{Target: TargetNone}, nil
	}
	r.metrics.RecordIngest(string(TargetRing))
	return Result{Target: TargetRing, SequenceID: seq}, nil
}
