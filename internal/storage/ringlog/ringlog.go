// Package ringlog provides the fixed-capacity ring log on internal storage.
package ringlog

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage"
	"github.com/yndnr/aerosense-go/internal/storage/health"
	"github.com/yndnr/aerosense-go/internal/telemetry/metric"
)

// File names inside the ring directory.
const (
	DataFile = "sensor_data.bin"
	MetaFile = "data_config.bin"
)

// Default configuration values.
const (
	DefaultCapacity   = 500
	DefaultFlushEvery = 10
)

// metricLabel labels ring metrics.
const metricLabel = "ring"

// Config configures a ring log.
type Config struct {
	Dir string

	// Capacity is the number of record slots. Zero adopts the persisted
	// capacity, or DefaultCapacity for a fresh directory.
	Capacity uint16

	Flush storage.FlushPolicy

	// ReadOnly opens an existing image for inspection. Every mutation
	// returns ErrStorageUnavailable.
	ReadOnly bool

	Prober  health.Prober
	Logger  *slog.Logger
	Metrics *metric.Registry
	Now     func() time.Time
}

// DefaultConfig returns the default ring configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:      dir,
		Capacity: DefaultCapacity,
		Flush:    storage.BatchPolicy(DefaultFlushEvery),
	}
}

// Status is a read-only snapshot of the ring.
type Status struct {
	Mode          Mode   `json:"mode"`
	Capacity      uint16 `json:"capacity"`
	StoredCount   uint16 `json:"stored_count"`
	WriteCursor   uint16 `json:"write_cursor"`
	OldestCursor  uint16 `json:"oldest_cursor"`
	LifetimeCount uint32 `json:"lifetime_count"`
	LastSequence  uint32 `json:"last_sequence"`
	StartedAt     uint32 `json:"started_at"`
	DownloadID    string `json:"download_id,omitempty"`

	// Medium usage of the filesystem holding the ring, zero when unknown.
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
}

// Download describes a started download.
type Download struct {
	ID    ulid.ULID
	Count int
}

// Log is the ring log. It is safe for concurrent use; every operation holds
// the log's mutex for its duration.
type Log struct {
	mu sync.Mutex

	cfg     Config
	logger  *slog.Logger
	metrics *metric.Registry

	data    *os.File
	state   meta
	pending int

	download ulid.ULID
	entropy  io.Reader
	closed   bool
}

// Open opens or creates the ring log in cfg.Dir.
//
// A missing or corrupt metadata block starts a fresh ring. A persisted
// capacity that differs from cfg.Capacity discards the stored records but
// keeps the lifetime count and last sequence id.
func Open(cfg Config) (*Log, error) {
	if cfg.Dir == "" {
		return nil, domain.ErrMissingArgument.WithDetails("ring directory")
	}
	if cfg.Flush.Mode == "" {
		cfg.Flush = storage.BatchPolicy(DefaultFlushEvery)
	}
	if err := cfg.Flush.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &Log{
		cfg:     cfg,
		logger:  cfg.Logger.With("log", metricLabel),
		metrics: cfg.Metrics,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}

	if cfg.ReadOnly {
		if err := l.openReadOnly(); err != nil {
			return nil, err
		}
		return l, nil
	}

	if l.cfg.Prober == nil {
		l.cfg.Prober = health.NewDirProber(cfg.Dir, metricLabel, cfg.Logger, cfg.Metrics)
	}
	if err := os.MkdirAll(cfg.Dir, storage.DefaultDirPerm); err != nil {
		return nil, storageErr("create ring directory", err)
	}

	data, err := os.OpenFile(l.path(DataFile), os.O_RDWR|os.O_CREATE, storage.DefaultFilePerm)
	if err != nil {
		return nil, storageErr("open ring data", err)
	}
	l.data = data

	if err := l.load(); err != nil {
		data.Close()
		return nil, err
	}
	l.metrics.SetRingStored(int(l.state.StoredCount))
	return l, nil
}

func (l *Log) openReadOnly() error {
	raw, err := os.ReadFile(l.path(MetaFile))
	if err != nil {
		return storageErr("read ring metadata", err)
	}
	m, err := decodeMeta(raw)
	if err != nil {
		return domain.ErrCorruptRecord.WithDetails(MetaFile).WithCause(err)
	}
	if !m.consistent() {
		return domain.ErrCorruptRecord.WithDetails("inconsistent ring cursors")
	}
	data, err := os.Open(l.path(DataFile))
	if err != nil {
		return storageErr("open ring data", err)
	}
	l.data = data
	l.state = m
	return nil
}

// load restores persisted state, resetting it when unusable.
func (l *Log) load() error {
	capacity := l.cfg.Capacity

	raw, err := os.ReadFile(l.path(MetaFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.logger.Info("initialising ring log", "dir", l.cfg.Dir)
		if capacity == 0 {
			capacity = DefaultCapacity
		}
		return l.reset(meta{Capacity: capacity})
	case err != nil:
		return storageErr("read ring metadata", err)
	}

	m, err := decodeMeta(raw)
	if err != nil {
		l.logger.Warn("ring metadata unreadable, starting fresh", "error", err)
		if capacity == 0 {
			capacity = DefaultCapacity
		}
		return l.reset(meta{Capacity: capacity})
	}

	if capacity != 0 && m.Capacity != capacity {
		l.logger.Warn("ring capacity changed, discarding stored records",
			"persisted", m.Capacity,
			"configured", capacity,
			"discarded", m.StoredCount,
		)
		return l.reset(meta{Capacity: capacity, LifetimeCount: m.LifetimeCount, LastSequence: m.LastSequence})
	}
	if !m.consistent() {
		l.logger.Warn("ring cursors inconsistent, discarding stored records",
			"capacity", m.Capacity,
			"stored", m.StoredCount,
			"write", m.WriteCursor,
			"oldest", m.OldestCursor,
		)
		return l.reset(meta{Capacity: m.Capacity, LifetimeCount: m.LifetimeCount, LastSequence: m.LastSequence})
	}

	// A download does not survive a restart.
	if m.Mode == DownloadMode {
		m.Mode = Stopped
	}
	l.state = m
	l.logger.Info("ring log opened",
		"capacity", m.Capacity,
		"stored", m.StoredCount,
		"lifetime", m.LifetimeCount,
		"mode", m.Mode.String(),
	)
	return nil
}

// reset truncates the data file and persists m.
func (l *Log) reset(m meta) error {
	if err := l.data.Truncate(0); err != nil {
		return storageErr("truncate ring data", err)
	}
	return l.persist(m)
}

// Close flushes pending metadata and closes the data file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var flushErr error
	if !l.cfg.ReadOnly && l.pending > 0 {
		flushErr = l.persist(l.state)
	}
	if err := l.data.Close(); err != nil && flushErr == nil {
		flushErr = storageErr("close ring data", err)
	}
	return flushErr
}

// Start switches to Active. Starting an active log is a no-op; starting
// during a download ends the download first.
func (l *Log) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Mode == Active {
		return nil
	}
	if err := l.writable(); err != nil {
		return err
	}

	next := l.state
	next.Mode = Active
	next.StartedAt = uint32(l.cfg.Now().Unix())
	if err := l.persist(next); err != nil {
		return err
	}
	l.download = ulid.ULID{}
	l.logger.Info("ring logging started", "stored", next.StoredCount)
	return nil
}

// Stop switches to Stopped, ending a download if one is in progress.
func (l *Log) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stop()
}

func (l *Log) stop() error {
	if l.state.Mode == Stopped {
		return nil
	}
	if err := l.writable(); err != nil {
		return err
	}

	prev := l.state.Mode
	next := l.state
	next.Mode = Stopped
	if err := l.persist(next); err != nil {
		return err
	}
	l.download = ulid.ULID{}
	l.logger.Info("ring logging stopped", "from", prev.String(), "stored", next.StoredCount)
	return nil
}

// Mode returns the current mode.
func (l *Log) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Mode
}

// NextSequence returns the id the next appended record should carry.
func (l *Log) NextSequence() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.LastSequence + 1
}

// Append stores rec at the write cursor and returns its sequence id.
//
// Outside Active mode nothing is written and Append returns 0 with a nil
// error. rec.SequenceID must exceed every id accepted before. On failure
// the counters are unchanged.
func (l *Log) Append(rec domain.LogRecord) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Mode != Active {
		return 0, nil
	}
	if rec.SequenceID <= l.state.LastSequence {
		return 0, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("sequence id %d not after %d", rec.SequenceID, l.state.LastSequence))
	}
	if err := l.writable(); err != nil {
		l.metrics.RecordAppendFailure(metricLabel)
		return 0, err
	}

	buf, _ := rec.MarshalBinary()
	off := int64(l.state.WriteCursor) * domain.RecordSize
	if _, err := l.data.WriteAt(buf, off); err != nil {
		l.metrics.RecordAppendFailure(metricLabel)
		return 0, storageErr("write ring slot", err)
	}

	next := l.state.advance(rec.SequenceID)
	if l.cfg.Flush.Due(l.pending + 1) {
		if l.cfg.Flush.Mode == storage.SyncModeSync {
			if err := l.data.Sync(); err != nil {
				l.metrics.RecordAppendFailure(metricLabel)
				return 0, storageErr("sync ring data", err)
			}
		}
		if err := l.persist(next); err != nil {
			l.metrics.RecordAppendFailure(metricLabel)
			return 0, err
		}
	} else {
		l.state = next
		l.pending++
	}

	l.metrics.RecordAppend(metricLabel)
	l.metrics.SetRingStored(int(next.StoredCount))
	return rec.SequenceID, nil
}

// Flush persists pending metadata.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cfg.ReadOnly || l.pending == 0 {
		return nil
	}
	if err := l.data.Sync(); err != nil {
		return storageErr("sync ring data", err)
	}
	return l.persist(l.state)
}

// BeginDownload enters DownloadMode and returns the number of records the
// caller may read with ReadAt. Appends are ignored until Stop, Start or
// EndDownload.
func (l *Log) BeginDownload() (Download, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writable(); err != nil {
		return Download{}, err
	}

	next := l.state
	next.Mode = DownloadMode
	if err := l.persist(next); err != nil {
		return Download{}, err
	}

	id, err := ulid.New(ulid.Timestamp(l.cfg.Now()), l.entropy)
	if err != nil {
		return Download{}, fmt.Errorf("ringlog: generate download id: %w", err)
	}
	l.download = id
	l.logger.Info("ring download started", "id", id.String(), "count", next.StoredCount)
	return Download{ID: id, Count: int(next.StoredCount)}, nil
}

// EndDownload leaves DownloadMode for Stopped. Outside a download it is a no-op.
func (l *Log) EndDownload() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.Mode != DownloadMode {
		return nil
	}
	return l.stop()
}

// ReadAt returns the i-th oldest stored record.
//
// A record that fails verification is returned together with
// ErrChecksumMismatch.
func (l *Log) ReadAt(i int) (domain.LogRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var rec domain.LogRecord
	if i < 0 || i >= int(l.state.StoredCount) {
		return rec, domain.ErrIndexOutOfRange.WithDetails(
			fmt.Sprintf("index %d, stored %d", i, l.state.StoredCount))
	}

	slot := (int(l.state.OldestCursor) + i) % int(l.state.Capacity)
	buf := make([]byte, domain.RecordSize)
	if _, err := l.data.ReadAt(buf, int64(slot)*domain.RecordSize); err != nil {
		return rec, storageErr("read ring slot", err)
	}
	if err := rec.UnmarshalBinary(buf); err != nil {
		return rec, err
	}
	if !domain.Verify(rec) {
		l.metrics.IncChecksumMismatch()
		l.logger.Warn("ring record failed verification", "index", i, "slot", slot, "sequence_id", rec.SequenceID)
		return rec, domain.ErrChecksumMismatch.WithDetails(fmt.Sprintf("index %d", i))
	}
	return rec, nil
}

// Clear discards every stored record and stops logging. The lifetime
// count and the last sequence id survive.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writable(); err != nil {
		return err
	}

	discarded := l.state.StoredCount
	err := l.reset(meta{
		Capacity:      l.state.Capacity,
		LifetimeCount: l.state.LifetimeCount,
		LastSequence:  l.state.LastSequence,
	})
	if err != nil {
		return err
	}
	l.download = ulid.ULID{}
	l.metrics.SetRingStored(0)
	l.logger.Info("ring log cleared", "discarded", discarded)
	return nil
}

// Status returns a snapshot of the ring.
func (l *Log) Status() Status {
	l.mu.Lock()
	s := Status{
		Mode:          l.state.Mode,
		Capacity:      l.state.Capacity,
		StoredCount:   l.state.StoredCount,
		WriteCursor:   l.state.WriteCursor,
		OldestCursor:  l.state.OldestCursor,
		LifetimeCount: l.state.LifetimeCount,
		LastSequence:  l.state.LastSequence,
		StartedAt:     l.state.StartedAt,
	}
	if l.state.Mode == DownloadMode {
		s.DownloadID = l.download.String()
	}
	l.mu.Unlock()

	if total, used, err := health.Usage(l.cfg.Dir); err == nil {
		s.TotalBytes, s.UsedBytes = total, used
	}
	return s
}

// Stats reports the ring medium for the metrics collector.
func (l *Log) Stats() metric.MediumStats {
	s := l.Status()
	return metric.MediumStats{
		Medium:     metricLabel,
		TotalBytes: s.TotalBytes,
		UsedBytes:  s.UsedBytes,
		Ready:      !l.cfg.ReadOnly && l.cfg.Prober.Probe() == health.Ready,
	}
}

// writable fails when the log cannot be mutated.
func (l *Log) writable() error {
	if l.closed {
		return domain.ErrStorageUnavailable.WithDetails("ring log closed")
	}
	if l.cfg.ReadOnly {
		return domain.ErrStorageUnavailable.WithDetails("ring log opened read-only")
	}
	if state := l.cfg.Prober.Probe(); state != health.Ready {
		return domain.ErrStorageUnavailable.WithDetails("internal storage " + state.String())
	}
	return nil
}

// persist writes m as the metadata block and adopts it as the current state.
func (l *Log) persist(m meta) error {
	tmp := l.path(MetaFile + ".tmp")
	if err := writeFileSync(tmp, m.encode()); err != nil {
		return storageErr("write ring metadata", err)
	}
	if err := os.Rename(tmp, l.path(MetaFile)); err != nil {
		return storageErr("replace ring metadata", err)
	}
	l.state = m
	l.pending = 0
	return nil
}

func (l *Log) path(name string) string {
	return filepath.Join(l.cfg.Dir, name)
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, storage.DefaultFilePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func storageErr(op string, err error) error {
	return domain.ErrStorage.WithCause(fmt.Errorf("%s: %w", op, err))
}
