// Package cmdserver provides the line-oriented command protocol.
package cmdserver

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/aerosense-go/internal/core/domain"
	"github.com/yndnr/aerosense-go/internal/core/service"
	"github.com/yndnr/aerosense-go/internal/infra/buildinfo"
	"github.com/yndnr/aerosense-go/internal/storage/sessionlog"
	"github.com/yndnr/aerosense-go/internal/telemetry/metric"
)

// DefaultListMax bounds LIST_FLIGHTS replies.
const DefaultListMax = 50

// ResponseWriter receives response lines without terminators.
type ResponseWriter interface {
	WriteLine(line string) error
}

// HandlerConfig holds protocol options.
type HandlerConfig struct {
	// StrictArgs replies with an error line to malformed arguments. When
	// false such commands are ignored without a reply.
	StrictArgs bool
	// ListMax bounds the number of flights in a LIST_FLIGHTS reply.
	ListMax int
	// Version is reported by VERSION. Defaults to buildinfo.Short().
	Version string
}

// Handler dispatches command lines against the two logs. Dispatch is
// serialised: one command runs to completion before the next starts,
// whichever transport it came from.
type Handler struct {
	mu sync.Mutex

	ring     service.RingLog
	sessions service.SessionLog
	cfg      HandlerConfig
	logger   *slog.Logger
	metrics  *metric.Registry
}

// NewHandler creates a Handler.
func NewHandler(ring service.RingLog, sessions service.SessionLog, cfg HandlerConfig, logger *slog.Logger, metrics *metric.Registry) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ListMax <= 0 {
		cfg.ListMax = DefaultListMax
	}
	if cfg.Version == "" {
		cfg.Version = buildinfo.Short()
	}
	return &Handler{
		ring:     ring,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
	}
}

// replier writes lines until the first failure and remembers it.
type replier struct {
	w   ResponseWriter
	err error
}

func (r *replier) line(s string) {
	if r.err != nil {
		return
	}
	r.err = r.w.WriteLine(s)
}

func (r *replier) printf(format string, args ...any) {
	r.line(fmt.Sprintf(format, args...))
}

// Handle dispatches one command line. It returns the first error from w;
// command failures are reported in-band and never returned.
func (h *Handler) Handle(w ResponseWriter, line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cmd := ParseCommand(line)
	if cmd.Raw == "" {
		return nil
	}

	r := &replier{w: w}
	if cmd.Name == "" {
		h.logger.Debug("unknown command", "line", cmd.Raw)
		h.metrics.RecordCommand("UNKNOWN", "error")
		r.printf("ERROR: unknown command '%s'. Send HELP for a list of commands.", cmd.Raw)
		return r.err
	}

	start := time.Now()
	ok := h.dispatch(r, cmd)
	result := "ok"
	if !ok {
		result = "error"
	}
	h.metrics.RecordCommand(cmd.Name, result)
	h.metrics.ObserveCommandDuration(cmd.Name, time.Since(start).Seconds())
	return r.err
}

// dispatch runs cmd and reports whether it succeeded.
func (h *Handler) dispatch(r *replier, cmd Command) bool {
	if cmd.HasArg && !cmd.takesArg() && h.cfg.StrictArgs {
		r.printf("ERROR: %s takes no argument", cmd.Name)
		return false
	}

	switch cmd.Name {
	case CmdStart:
		return h.handleStart(r, "LOGGING_STARTED")
	case CmdLegacyStart:
		return h.handleStart(r, "START MEASURING")
	case CmdStop:
		return h.handleStop(r, "LOGGING_STOPPED")
	case CmdLegacyStop:
		return h.handleStop(r, "STOP MEASURING")
	case CmdStatus:
		return h.handleStatus(r)
	case CmdHelp:
		return h.handleHelp(r)
	case CmdStartFlight:
		return h.handleStartFlight(r)
	case CmdEndFlight:
		return h.handleEndFlight(r)
	case CmdListFlights:
		return h.handleListFlights(r)
	case CmdDownloadFlight:
		return h.withFlightNumber(r, cmd, h.handleDownloadFlight)
	case CmdDeleteFlight:
		return h.withFlightNumber(r, cmd, h.handleDeleteFlight)
	case CmdStorageInfo:
		return h.handleStorageInfo(r)
	case CmdFormat:
		return h.handleFormat(r)
	case CmdVerify:
		return h.handleVerify(r)
	case CmdRingDownload:
		return h.handleRingDownload(r)
	case CmdRingClear:
		return h.handleRingClear(r)
	case CmdVersion:
		r.printf("VERSION: %s", h.cfg.Version)
		return true
	}

	r.printf("ERROR: unknown command '%s'. Send HELP for a list of commands.", cmd.Raw)
	return false
}

func (h *Handler) withFlightNumber(r *replier, cmd Command, fn func(*replier, uint16) bool) bool {
	arg := cmd.FlightNumber()
	if !arg.OK() {
		if h.cfg.StrictArgs {
			r.printf("ERROR: %s: %s", cmd.Name, describe(arg.Err))
		} else {
			h.logger.Debug("ignoring malformed argument", "command", cmd.Name, "arg", cmd.Arg)
		}
		return false
	}
	return fn(r, arg.Value)
}

func (h *Handler) handleStart(r *replier, reply string) bool {
	if err := h.ring.Start(); err != nil {
		h.logger.Error("start logging failed", "error", err)
		r.printf("ERROR: %s", describe(err))
		return false
	}
	r.line(reply)
	return true
}

func (h *Handler) handleStop(r *replier, reply string) bool {
	if err := h.ring.Stop(); err != nil {
		h.logger.Error("stop logging failed", "error", err)
		r.printf("ERROR: %s", describe(err))
		return false
	}
	r.line(reply)
	return true
}

func (h *Handler) handleStatus(r *replier) bool {
	rs := h.ring.Status()
	ss := h.sessions.Status()

	flight := "NONE"
	if cur, open := h.sessions.Current(); open {
		flight = strconv.Itoa(int(cur.Number))
	}
	r.printf("STATUS: State=%s Records=%d/%d Total=%d Flight=%s SD=%s",
		rs.Mode, rs.StoredCount, rs.Capacity, rs.LifetimeCount, flight, ss.State)
	return true
}

func (h *Handler) handleHelp(r *replier) bool {
	r.printf("HELP: %d commands", len(commands))
	for _, c := range commands {
		names := append([]string{c.Name}, c.Aliases...)
		usage := strings.Join(names, "|")
		if c.Arg != "" {
			usage += ":" + c.Arg
		}
		r.printf("  %-28s %s", usage, c.Help)
	}
	r.line("HELP_END")
	return true
}

func (h *Handler) handleStartFlight(r *replier) bool {
	s, err := h.sessions.StartSession()
	if err != nil {
		h.logger.Warn("flight start refused", "error", err)
		r.printf("SD_ERROR: %s", describe(err))
		return false
	}
	r.printf("SD_FLIGHT_STARTED: %d", s.Number)
	return true
}

func (h *Handler) handleEndFlight(r *replier) bool {
	s, ended, err := h.sessions.EndSession()
	if err != nil {
		h.logger.Error("flight end failed", "error", err)
		r.printf("SD_ERROR: %s", describe(err))
		return false
	}
	if !ended {
		r.line("SD_FLIGHT_ENDED: NONE")
		return true
	}
	r.printf("SD_FLIGHT_ENDED: %d Records=%d", s.Number, s.RecordCount)
	return true
}

func (h *Handler) handleListFlights(r *replier) bool {
	list, err := h.sessions.ListSessions(h.cfg.ListMax)
	if err != nil {
		r.printf("SD_ERROR: %s", describe(err))
		return false
	}
	r.printf("SD_FLIGHTS: %d", len(list))
	for _, s := range list {
		entry := fmt.Sprintf("FLIGHT: %d,%d,%d,%d,%s", s.Number, s.StartTime, s.EndTime, s.RecordCount, s.Name)
		if s.Missing {
			entry += ",MISSING"
		}
		r.line(entry)
	}
	r.line("SD_FLIGHTS_END")
	return true
}

func (h *Handler) handleDownloadFlight(r *replier, number uint16) bool {
	started := false
	sum, err := h.sessions.DownloadSession(number, func(line string) error {
		if !started {
			r.printf("SD_FLIGHT_DATA_START: %d", number)
			started = true
		}
		r.line(line)
		return r.err
	})
	if err != nil {
		if r.err != nil {
			h.logger.Warn("flight download aborted by transport", "flight", number, "lines", sum.Lines, "error", r.err)
			return false
		}
		r.printf("SD_ERROR: %s", describe(err))
		return false
	}
	if !started {
		r.printf("SD_FLIGHT_DATA_START: %d", number)
	}
	r.printf("SD_FLIGHT_DATA_END: %d Lines=%d Digest=%s", number, sum.Lines, sum.DigestHex())
	h.logger.Info("flight downloaded", "flight", number, "lines", sum.Lines, "bytes", sum.Bytes)
	return true
}

func (h *Handler) handleDeleteFlight(r *replier, number uint16) bool {
	if err := h.sessions.DeleteSession(number); err != nil {
		r.printf("SD_ERROR: %s", describe(err))
		return false
	}
	r.printf("SD_FLIGHT_DELETED: %d", number)
	return true
}

func (h *Handler) handleStorageInfo(r *replier) bool {
	s := h.sessions.Status()
	r.printf("SD_STATUS: State=%s Flights=%d Records=%d Size=%d Used=%d",
		s.State, s.TotalFlights, s.TotalRecords, s.SizeMB, s.UsedMB)
	return true
}

func (h *Handler) handleFormat(r *replier) bool {
	if err := h.sessions.FormatStorage(); err != nil {
		h.logger.Error("format failed", "error", err)
		r.printf("SD_ERROR: %s", describe(err))
		return false
	}
	r.line("SD_FORMATTED")
	return true
}

func (h *Handler) handleVerify(r *replier) bool {
	rep, err := h.sessions.VerifyIntegrity()
	if err != nil {
		r.printf("SD_ERROR: %s", describe(err))
		return false
	}
	missing := "NONE"
	if len(rep.Missing) > 0 {
		nums := make([]string, len(rep.Missing))
		for i, n := range rep.Missing {
			nums[i] = strconv.Itoa(int(n))
		}
		missing = strings.Join(nums, ",")
	}
	r.printf("SD_VERIFY: Expected=%d Found=%d Missing=%s", rep.Expected, rep.Found, missing)
	return true
}

func (h *Handler) handleRingDownload(r *replier) bool {
	dl, err := h.ring.BeginDownload()
	if err != nil {
		r.printf("ERROR: %s", describe(err))
		return false
	}
	defer func() {
		if err := h.ring.EndDownload(); err != nil {
			h.logger.Warn("ring download not closed", "id", dl.ID.String(), "error", err)
		}
	}()

	r.printf("DATA_START: %d Id=%s", dl.Count, dl.ID)
	r.line(strings.Join(sessionlog.Header, ","))

	errs := 0
	for i := 0; i < dl.Count && r.err == nil; i++ {
		rec, err := h.ring.ReadAt(i)
		if err != nil {
			errs++
			r.printf("DATA_ERROR: %d %s", i, describe(err))
			continue
		}
		r.line(strings.Join(sessionlog.FormatRecord(rec), ","))
	}
	r.printf("DATA_END: %d Errors=%d", dl.Count, errs)
	h.logger.Info("ring downloaded", "id", dl.ID.String(), "count", dl.Count, "errors", errs)
	return r.err == nil
}

func (h *Handler) handleRingClear(r *replier) bool {
	if err := h.ring.Clear(); err != nil {
		r.printf("ERROR: %s", describe(err))
		return false
	}
	r.line("DATA_CLEARED")
	return true
}

// describe renders err for a response line: "<code> <message>[: details]"
// for domain errors.
func describe(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		s := de.Code + " " + de.Message
		if de.Details != "" {
			s += ": " + de.Details
		}
		return s
	}
	return err.Error()
}
