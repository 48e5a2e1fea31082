// Package sessionlog provides the per-flight log on removable storage.
package sessionlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/storage"
	"github.com/yndnr/aerosense-go/internal/storage/health"
	"github.com/yndnr/aerosense-go/internal/telemetry/metric"
)

// Names under the mount point.
const (
	DataDir      = "AeroSense"
	IndexFile    = "flight_index.txt"
	CountersFile = "aerosense_config.txt"
)

// DefaultSummaryEvery is how many records pass between counter rewrites.
const DefaultSummaryEvery = 50

const metricLabel = "session"

// Config configures a session log.
type Config struct {
	Mount string

	Flush storage.FlushPolicy

	// SummaryEvery rewrites the counters file every n records of a flight.
	SummaryEvery int

	Prober  health.Prober
	Logger  *slog.Logger
	Metrics *metric.Registry
	Now     func() time.Time
}

// DefaultConfig returns the default configuration for mount.
func DefaultConfig(mount string) Config {
	return Config{
		Mount:        mount,
		Flush:        storage.SyncPolicy(),
		SummaryEvery: DefaultSummaryEvery,
	}
}

// Status is a snapshot of the session log.
type Status struct {
	State         health.State `json:"state"`
	CurrentFlight uint16       `json:"current_flight"`
	OpenRecords   uint32       `json:"open_records"`
	LastFlight    uint16       `json:"last_flight"`
	TotalFlights  uint32       `json:"total_flights"`
	TotalRecords  uint32       `json:"total_records"`
	SizeMB        uint64       `json:"size_mb"`
	UsedMB        uint64       `json:"used_mb"`
}

// DownloadSummary describes a streamed flight.
type DownloadSummary struct {
	Number uint16
	Lines  int
	Bytes  int64
	Digest uint64
}

// DigestHex renders the digest the way DOWNLOAD_FLIGHT reports it.
func (d DownloadSummary) DigestHex() string {
	return fmt.Sprintf("%016x", d.Digest)
}

// IntegrityReport is the result of VerifyIntegrity.
type IntegrityReport struct {
	Expected int      `json:"expected"`
	Found    int      `json:"found"`
	Missing  []uint16 `json:"missing"`
}

// LineSink receives streamed lines without their terminator.
type LineSink func(line string) error

// flightFile is the handle of an open flight.
type flightFile interface {
	io.Writer
	Sync() error
	Close() error
}

type openFlight struct {
	session domain.Session
	file    flightFile
	w       *csv.Writer
	pending int
}

// Log is the session log. It is safe for concurrent use; every operation
// holds the log's mutex for its duration.
type Log struct {
	mu sync.Mutex

	cfg     Config
	logger  *slog.Logger
	metrics *metric.Registry

	loaded       bool
	counters     counters
	open         *openFlight
	sinceSummary int
}

// Open creates a session log on cfg.Mount. An absent card is not an error;
// the card is loaded by the first operation that finds it ready.
func Open(cfg Config) (*Log, error) {
	if cfg.Mount == "" {
		return nil, domain.ErrMissingArgument.WithDetails("session mount")
	}
	if cfg.Flush.Mode == "" {
		cfg.Flush = storage.SyncPolicy()
	}
	if err := cfg.Flush.Validate(); err != nil {
		return nil, err
	}
	if cfg.SummaryEvery <= 0 {
		cfg.SummaryEvery = DefaultSummaryEvery
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Prober == nil {
		cfg.Prober = health.NewDirProber(cfg.Mount, "sd", cfg.Logger, cfg.Metrics)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	l := &Log{
		cfg:     cfg,
		logger:  cfg.Logger.With("log", metricLabel),
		metrics: cfg.Metrics,
	}

	if err := l.ready(); err != nil {
		l.logger.Warn("removable storage not ready at open", "mount", cfg.Mount, "error", err)
	}
	return l, nil
}

// Close ends the open flight, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open == nil {
		return nil
	}
	_, err := l.endSession()
	if err != nil {
		l.abandon()
	}
	return err
}

// ready probes the card and loads it on first success.
func (l *Log) ready() error {
	if state := l.cfg.Prober.Probe(); state != health.Ready {
		return domain.ErrStorageUnavailable.WithDetails("removable storage " + state.String())
	}
	if l.loaded {
		return nil
	}
	if err := l.load(); err != nil {
		return err
	}
	l.loaded = true
	return nil
}

// load reconciles the counters with the index and the files on the card.
func (l *Log) load() error {
	c, err := readCounters(l.path(CountersFile))
	if err != nil {
		return storageErr("read counters", err)
	}
	entries, bad, err := readIndex(l.path(IndexFile))
	if err != nil {
		return storageErr("read index", err)
	}
	if bad > 0 {
		l.logger.Warn("skipped malformed index lines", "count", bad)
	}

	indexed := make(map[uint16]bool, len(entries))
	var indexRecords uint32
	for _, e := range entries {
		indexed[e.Number] = true
		indexRecords += e.RecordCount
		if e.Number > c.LastFlight {
			c.LastFlight = e.Number
		}
	}

	files, err := os.ReadDir(l.path(DataDir))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageErr("scan flights", err)
	}
	for _, f := range files {
		if n, ok := domain.ParseSessionFileName(f.Name()); ok && n > c.LastFlight {
			c.LastFlight = n
		}
	}

	if c.CurrentFlight != 0 {
		if !indexed[c.CurrentFlight] {
			recovered, err := l.recover(c.CurrentFlight, c.CurrentStart)
			if err != nil {
				return err
			}
			if recovered != nil {
				entries = append(entries, *recovered)
				indexRecords += recovered.RecordCount
			}
		}
		c.CurrentFlight = 0
		c.CurrentStart = 0
	}

	if uint32(len(entries)) > c.TotalFlights {
		c.TotalFlights = uint32(len(entries))
	}
	if indexRecords > c.TotalRecords {
		c.TotalRecords = indexRecords
	}
	if total, _, err := health.Usage(l.cfg.Mount); err == nil {
		c.CardSizeMB = total >> 20
	}

	if err := l.persist(c); err != nil {
		return err
	}
	l.logger.Info("removable storage loaded",
		"last_flight", c.LastFlight,
		"flights", c.TotalFlights,
		"records", c.TotalRecords,
	)
	return nil
}

// recover closes a flight that was open when power was lost.
func (l *Log) recover(number uint16, start uint32) (*domain.Session, error) {
	name := domain.SessionFileName(number)
	path := l.flightPath(number)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("open flight lost with its file", "flight", number)
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("stat "+name, err)
	}

	lines, err := countLines(path)
	if err != nil {
		return nil, storageErr("count "+name, err)
	}
	s := domain.Session{
		Number:    number,
		StartTime: start,
		EndTime:   uint32(info.ModTime().Unix()),
		Name:      name,
	}
	if lines > 0 {
		s.RecordCount = uint32(lines - 1)
	}
	if err := l.appendIndex(s); err != nil {
		return nil, err
	}
	l.logger.Warn("recovered unterminated flight", "flight", number, "records", s.RecordCount)
	return &s, nil
}

// StartSession opens the next flight.
func (l *Log) StartSession() (domain.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return domain.Session{}, err
	}
	if l.open != nil {
		return domain.Session{}, domain.ErrSessionAlreadyOpen.WithDetails(
			fmt.Sprintf("flight %d", l.open.session.Number))
	}
	if l.counters.LastFlight == math.MaxUint16 {
		return domain.Session{}, domain.ErrInvalidArgument.WithDetails("flight numbers exhausted")
	}

	number := l.counters.LastFlight + 1
	s := domain.Session{
		Number:    number,
		StartTime: uint32(l.cfg.Now().Unix()),
		Name:      domain.SessionFileName(number),
	}

	if err := os.MkdirAll(l.path(DataDir), storage.DefaultDirPerm); err != nil {
		return domain.Session{}, storageErr("create data dir", err)
	}
	f, err := os.OpenFile(l.flightPath(number), os.O_WRONLY|os.O_CREATE|os.O_EXCL, storage.DefaultFilePerm)
	if err != nil {
		return domain.Session{}, storageErr("create "+s.Name, err)
	}
	w := csv.NewWriter(f)
	w.Write(Header)
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return domain.Session{}, storageErr("write header", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return domain.Session{}, storageErr("sync "+s.Name, err)
	}

	next := l.counters
	next.LastFlight = number
	next.CurrentFlight = number
	next.CurrentStart = s.StartTime
	if err := l.persist(next); err != nil {
		f.Close()
		os.Remove(f.Name())
		return domain.Session{}, err
	}

	l.open = &openFlight{session: s, file: f, w: w}
	l.sinceSummary = 0
	l.metrics.SessionStarted()
	l.logger.Info("flight started", "flight", number, "file", s.Name)
	return s, nil
}

// Current returns the open flight.
func (l *Log) Current() (domain.Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.open == nil {
		return domain.Session{}, false
	}
	return l.open.session, true
}

// NextRecordID returns the id the next appended record should carry.
func (l *Log) NextRecordID() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counters.TotalRecords + 1
}

// Append writes rec as one CSV line of the open flight.
func (l *Log) Append(rec domain.LogRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open == nil {
		return domain.ErrSessionNotOpen
	}
	if err := l.ready(); err != nil {
		l.metrics.RecordAppendFailure(metricLabel)
		return err
	}

	o := l.open
	o.w.Write(FormatRecord(rec))
	o.w.Flush()
	if err := o.w.Error(); err != nil {
		l.metrics.RecordAppendFailure(metricLabel)
		return storageErr("write "+o.session.Name, err)
	}

	// The line is in the file now; count it even if the sync below fails.
	o.session.RecordCount++
	l.counters.TotalRecords++
	l.sinceSummary++

	if l.cfg.Flush.Due(o.pending + 1) {
		if err := o.file.Sync(); err != nil {
			o.pending++
			l.metrics.RecordAppendFailure(metricLabel)
			return storageErr("sync "+o.session.Name, err)
		}
		o.pending = 0
	} else {
		o.pending++
	}
	l.metrics.RecordAppend(metricLabel)

	if l.sinceSummary >= l.cfg.SummaryEvery {
		if err := l.persist(l.counters); err != nil {
			l.logger.Warn("counter summary failed", "flight", o.session.Number, "error", err)
		}
	}
	return nil
}

// EndSession closes the open flight and records it in the index. With no
// open flight it returns false and no error.
func (l *Log) EndSession() (domain.Session, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open == nil {
		return domain.Session{}, false, nil
	}
	if err := l.ready(); err != nil {
		return domain.Session{}, false, err
	}
	s, err := l.endSession()
	if err != nil {
		return domain.Session{}, false, err
	}
	return s, true, nil
}

func (l *Log) endSession() (domain.Session, error) {
	o := l.open
	o.w.Flush()
	if err := o.w.Error(); err != nil {
		return domain.Session{}, l.release("flush", err)
	}
	if err := o.file.Sync(); err != nil {
		return domain.Session{}, l.release("sync", err)
	}
	if err := o.file.Close(); err != nil {
		return domain.Session{}, l.release("close", err)
	}

	s := o.session
	s.EndTime = uint32(l.cfg.Now().Unix())
	if s.EndTime == 0 {
		s.EndTime = 1
	}
	if err := l.appendIndex(s); err != nil {
		// The file is closed; keep it indexable by recovery on the next load.
		l.open = nil
		l.loaded = false
		return domain.Session{}, err
	}

	next := l.counters
	next.CurrentFlight = 0
	next.CurrentStart = 0
	next.TotalFlights++
	l.open = nil
	if err := l.persist(next); err != nil {
		l.counters = next
		l.logger.Warn("counters not persisted after flight end", "flight", s.Number, "error", err)
	}

	l.metrics.SessionEnded()
	l.logger.Info("flight ended", "flight", s.Number, "records", s.RecordCount, "duration", s.Duration())
	return s, nil
}

// release drops an open flight whose file failed. The counters still name
// it as current, so the next load recovers it into the index from the
// lines that reached the card.
func (l *Log) release(op string, cause error) error {
	o := l.open
	o.file.Close()
	l.open = nil
	l.loaded = false
	l.metrics.SessionEnded()
	l.logger.Error("flight file failed, left for recovery",
		"flight", o.session.Number,
		"op", op,
		"error", cause,
	)
	return storageErr(op+" "+o.session.Name, cause)
}

// abandon drops the open flight without indexing it.
func (l *Log) abandon() {
	if l.open == nil {
		return
	}
	l.open.file.Close()
	l.open = nil
	l.metrics.SessionEnded()
}

// ListSessions returns up to limit index entries in append order; limit <= 0
// returns all of them. Entries whose file is gone are marked Missing.
func (l *Log) ListSessions(limit int) ([]domain.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ready(); err != nil {
		return nil, err
	}
	entries, _, err := readIndex(l.path(IndexFile))
	if err != nil {
		return nil, storageErr("read index", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Missing = !l.exists(entries[i].Number)
	}
	return entries, nil
}

// DownloadSession streams the lines of flight number to sink. Streaming
// stops at the first sink error, which is returned along with the summary
// of what was sent.
func (l *Log) DownloadSession(number uint16, sink LineSink) (DownloadSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sum := DownloadSummary{Number: number}
	if err := l.ready(); err != nil {
		return sum, err
	}
	if l.open != nil && l.open.session.Number == number {
		l.open.w.Flush()
	}

	f, err := os.Open(l.flightPath(number))
	if errors.Is(err, fs.ErrNotExist) {
		return sum, domain.ErrSessionNotFound.WithDetails(fmt.Sprintf("flight %d", number))
	}
	if err != nil {
		return sum, storageErr("open "+domain.SessionFileName(number), err)
	}
	defer f.Close()

	h := murmur3.New64()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if err := sink(line); err != nil {
			sum.Digest = h.Sum64()
			return sum, err
		}
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
		sum.Lines++
		sum.Bytes += int64(len(line)) + 1
	}
	sum.Digest = h.Sum64()
	if err := sc.Err(); err != nil {
		return sum, storageErr("read "+domain.SessionFileName(number), err)
	}
	return sum, nil
}

// DeleteSession removes the file of flight number. Its index line stays.
func (l *Log) DeleteSession(number uint16) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open != nil && l.open.session.Number == number {
		return domain.ErrSessionAlreadyOpen.WithDetails(fmt.Sprintf("flight %d is recording", number))
	}
	if err := l.ready(); err != nil {
		return err
	}

	err := os.Remove(l.flightPath(number))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrSessionNotFound.WithDetails(fmt.Sprintf("flight %d", number))
	}
	if err != nil {
		return storageErr("remove "+domain.SessionFileName(number), err)
	}
	l.logger.Info("flight deleted", "flight", number)
	return nil
}

// VerifyIntegrity checks that every indexed flight still has its file.
func (l *Log) VerifyIntegrity() (IntegrityReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var r IntegrityReport
	if err := l.ready(); err != nil {
		return r, err
	}
	entries, _, err := readIndex(l.path(IndexFile))
	if err != nil {
		return r, storageErr("read index", err)
	}
	r.Expected = len(entries)
	for _, e := range entries {
		if l.exists(e.Number) {
			r.Found++
		} else {
			r.Missing = append(r.Missing, e.Number)
		}
	}
	if len(r.Missing) > 0 {
		l.logger.Warn("flights missing from card", "missing", r.Missing)
	}
	return r, nil
}

// FormatStorage removes every flight file, the index and the counters.
// An open flight is abandoned.
func (l *Log) FormatStorage() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state := l.cfg.Prober.Probe(); state != health.Ready {
		return domain.ErrStorageUnavailable.WithDetails("removable storage " + state.String())
	}

	l.abandon()
	if err := os.RemoveAll(l.path(DataDir)); err != nil {
		return storageErr("remove flights", err)
	}
	for _, name := range []string{IndexFile, CountersFile} {
		if err := os.Remove(l.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return storageErr("remove "+name, err)
		}
	}

	c := counters{}
	if total, _, err := health.Usage(l.cfg.Mount); err == nil {
		c.CardSizeMB = total >> 20
	}
	if err := l.persist(c); err != nil {
		return err
	}
	l.loaded = true
	l.sinceSummary = 0
	l.logger.Info("removable storage formatted")
	return nil
}

// Status returns a snapshot of the session log. It does not load the card.
func (l *Log) Status() Status {
	state := l.cfg.Prober.Probe()

	l.mu.Lock()
	s := Status{
		State:        state,
		LastFlight:   l.counters.LastFlight,
		TotalFlights: l.counters.TotalFlights,
		TotalRecords: l.counters.TotalRecords,
	}
	if l.open != nil {
		s.CurrentFlight = l.open.session.Number
		s.OpenRecords = l.open.session.RecordCount
	}
	l.mu.Unlock()

	if state == health.Ready {
		if total, used, err := health.Usage(l.cfg.Mount); err == nil {
			s.SizeMB, s.UsedMB = total>>20, used>>20
		}
	}
	return s
}

// Stats reports the card for the metrics collector.
func (l *Log) Stats() metric.MediumStats {
	s := l.Status()
	return metric.MediumStats{
		Medium:     "sd",
		TotalBytes: s.SizeMB << 20,
		UsedBytes:  s.UsedMB << 20,
		Ready:      s.State == health.Ready,
	}
}

func (l *Log) appendIndex(s domain.Session) error {
	f, err := os.OpenFile(l.path(IndexFile), os.O_WRONLY|os.O_CREATE|os.O_APPEND, storage.DefaultFilePerm)
	if err != nil {
		return storageErr("open index", err)
	}
	if _, err := f.WriteString(formatIndexLine(s) + "\n"); err != nil {
		f.Close()
		return storageErr("append index", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return storageErr("sync index", err)
	}
	if err := f.Close(); err != nil {
		return storageErr("close index", err)
	}
	return nil
}

// persist rewrites the counters file and adopts c.
func (l *Log) persist(c counters) error {
	tmp := l.path(CountersFile + ".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, storage.DefaultFilePerm)
	if err != nil {
		return storageErr("write counters", err)
	}
	if _, err := f.Write(c.encode()); err != nil {
		f.Close()
		return storageErr("write counters", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return storageErr("sync counters", err)
	}
	if err := f.Close(); err != nil {
		return storageErr("close counters", err)
	}
	if err := os.Rename(tmp, l.path(CountersFile)); err != nil {
		return storageErr("replace counters", err)
	}
	l.counters = c
	l.sinceSummary = 0
	return nil
}

func (l *Log) exists(number uint16) bool {
	_, err := os.Stat(l.flightPath(number))
	return err == nil
}

func (l *Log) path(name string) string {
	return filepath.Join(l.cfg.Mount, name)
}

func (l *Log) flightPath(number uint16) string {
	return filepath.Join(l.cfg.Mount, DataDir, domain.SessionFileName(number))
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

func storageErr(op string, err error) error {
	return domain.ErrStorage.WithCause(fmt.Errorf("%s: %w", op, err))
}
