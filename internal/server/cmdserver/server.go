// Package cmdserver provides the line-oriented command protocol.
package cmdserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/aerosense-go/internal/telemetry/metric"
)

// Kind selects the transport.
type Kind string

const (
	KindSerial Kind = "serial"
	KindTCP    Kind = "tcp"
	KindUnix   Kind = "unix"
	KindStdio  Kind = "stdio"
)

// Config holds the command server configuration.
type Config struct {
	Kind Kind
	// Listen is the address for tcp and the socket path for unix.
	Listen string
	Serial SerialConfig

	// MaxLine is the longest accepted command line in bytes.
	MaxLine int
	// RateLimit is the maximum number of commands per second per
	// connection. Zero disables limiting.
	RateLimit int
	// WriteTimeout bounds each response flush on socket transports.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Kind:         KindSerial,
		Serial:       DefaultSerialConfig(),
		MaxLine:      DefaultMaxLine,
		RateLimit:    20,
		WriteTimeout: 10 * time.Second,
	}
}

// Server serves the command protocol on one transport.
type Server struct {
	cfg     *Config
	handler *Handler
	logger  *slog.Logger
	metrics *metric.Registry

	// openSerial opens the serial port; replaced in tests.
	openSerial func(SerialConfig) (io.ReadWriteCloser, error)

	mu      sync.Mutex
	ln      net.Listener
	streams map[io.Closer]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a command server.
func New(cfg *Config, handler *Handler, logger *slog.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		handler:    handler,
		logger:     logger,
		metrics:    metrics,
		openSerial: OpenSerial,
		streams:    make(map[io.Closer]struct{}),
	}
}

// Start starts serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.running.Store(true)

	switch s.cfg.Kind {
	case KindTCP, KindUnix:
		if s.cfg.Kind == KindUnix {
			_ = os.Remove(s.cfg.Listen)
		}
		ln, err := net.Listen(string(s.cfg.Kind), s.cfg.Listen)
		if err != nil {
			return fmt.Errorf("cmdserver: listen %s %s: %w", s.cfg.Kind, s.cfg.Listen, err)
		}
		s.mu.Lock()
		s.ln = ln
		s.mu.Unlock()
		s.logger.Info("command server listening", "kind", s.cfg.Kind, "address", ln.Addr().String())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
				s.logger.Error("command server accept error", "error", err)
			}
		}()

	case KindSerial:
		port, err := s.openSerial(s.cfg.Serial)
		if err != nil {
			return fmt.Errorf("cmdserver: open serial %s: %w", s.cfg.Serial.Port, err)
		}
		s.logger.Info("command server on serial port", "port", s.cfg.Serial.Port, "baud", s.cfg.Serial.BaudRate)
		s.serveBackground(ctx, port, s.cfg.Serial.Port)

	case KindStdio:
		s.logger.Info("command server on stdio")
		s.serveBackground(ctx, stdio{}, "stdio")

	default:
		return fmt.Errorf("cmdserver: unknown transport %q", s.cfg.Kind)
	}
	return nil
}

// Addr returns the listener address for socket transports.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes every open stream and waits for the
// serving goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	for c := range s.streams {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		s.serveBackground(ctx, c, c.RemoteAddr().String())
	}
}

func (s *Server) serveBackground(ctx context.Context, rwc io.ReadWriteCloser, remote string) {
	s.mu.Lock()
	s.streams[rwc] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.streams, rwc)
			s.mu.Unlock()
			_ = rwc.Close()
		}()

		if err := s.ServeStream(ctx, rwc); err != nil && s.running.Load() {
			s.logger.Debug("command stream closed", "remote", remote, "error", err)
		}
	}()
}

// lineWriter terminates every response line with CRLF.
type lineWriter struct {
	bw *bufio.Writer
}

func (w lineWriter) WriteLine(line string) error {
	if _, err := w.bw.WriteString(line); err != nil {
		return err
	}
	_, err := w.bw.WriteString("\r\n")
	return err
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// ServeStream runs the protocol on rw until EOF, a transport error or
// cancellation. Read timeouts from the serial driver are not errors.
func (s *Server) ServeStream(ctx context.Context, rw io.ReadWriter) error {
	br := bufio.NewReader(rw)
	bw := bufio.NewWriter(rw)
	out := lineWriter{bw: bw}
	acc := NewLineAccumulator(s.cfg.MaxLine)

	var limiter *rate.Limiter
	if s.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
	}

	flush := func() error {
		if d, ok := rw.(writeDeadliner); ok && s.cfg.WriteTimeout > 0 {
			_ = d.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		return bw.Flush()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		b, err := br.ReadByte()
		if err != nil {
			if isReadTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line, res := acc.Push(b)
		switch res {
		case Overflow:
			s.metrics.IncLineDropped()
			s.logger.Warn("command line too long, discarded", "max", acc.Max())
			_ = out.WriteLine(fmt.Sprintf("ERROR: line too long (max %d bytes)", acc.Max()))
			if err := flush(); err != nil {
				return err
			}

		case Complete:
			if limiter != nil && !limiter.Allow() {
				s.metrics.IncRateLimited()
				_ = out.WriteLine("ERROR: rate limit exceeded")
				if err := flush(); err != nil {
					return err
				}
				continue
			}
			if err := s.handler.Handle(out, line); err != nil {
				return err
			}
			if err := flush(); err != nil {
				return err
			}
		}
	}
}

// stdio joins the process's standard streams.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
