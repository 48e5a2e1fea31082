package connection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

// DefaultTimeout bounds the wait for each reply line.
const DefaultTimeout = 5 * time.Second

var (
	// ErrNoReply is returned when the logger sends nothing back, which is
	// how a legacy-mode logger answers a malformed argument.
	ErrNoReply = errors.New("no reply from logger")

	// ErrTruncated is returned when a multi-line reply stops before its
	// closing line.
	ErrTruncated = errors.New("reply truncated")
)

// Client sends protocol commands over a byte stream. Commands are
// serialised; one reply is read completely before the next command is sent.
type Client struct {
	mu      sync.Mutex
	rw      io.ReadWriteCloser
	r       *bufio.Reader
	timeout time.Duration

	// partial holds the start of a line cut by a read timeout.
	partial string
	// stale is a frame abandoned as truncated; its remainder is skipped
	// before the next command goes out.
	stale *frame
}

// NewClient wraps an open transport. A zero timeout waits forever on
// transports that support read deadlines.
func NewClient(rw io.ReadWriteCloser, timeout time.Duration) *Client {
	return &Client{
		rw:      rw,
		r:       bufio.NewReader(rw),
		timeout: timeout,
	}
}

// Close closes the transport.
func (c *Client) Close() error {
	if c.rw == nil {
		return nil
	}
	return c.rw.Close()
}

// Execute sends cmd and returns every line of its reply.
func (c *Client) Execute(cmd string) ([]string, error) {
	var lines []string
	err := c.Stream(cmd, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	return lines, err
}

// Stream sends cmd and passes each reply line to fn as it arrives. When fn
// fails the rest of the reply is still read and discarded, so the
// connection stays usable, and fn's error is returned.
func (c *Client) Stream(cmd string, fn func(line string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drain()
	if _, err := io.WriteString(c.rw, cmd+"\r\n"); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}

	first, err := c.nextLine()
	if err != nil {
		if isTimeout(err) {
			return ErrNoReply
		}
		return fmt.Errorf("read reply: %w", err)
	}
	sinkErr := fn(first)

	f := frameOf(first)
	if f == nil {
		return sinkErr
	}
	for {
		line, err := c.nextLine()
		if err != nil {
			if isTimeout(err) || errors.Is(err, io.EOF) {
				c.stale = f
				return fmt.Errorf("%w: waiting for %s", ErrTruncated, f.end)
			}
			return fmt.Errorf("read reply: %w", err)
		}
		if sinkErr == nil {
			sinkErr = fn(line)
		}
		if f.ends(line) {
			return sinkErr
		}
	}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

func (c *Client) readLine() (string, error) {
	if d, ok := c.rw.(readDeadliner); ok && c.timeout > 0 {
		if err := d.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return "", err
		}
	}
	s, err := c.r.ReadString('\n')
	if err != nil {
		c.partial += s
		return "", err
	}
	s, c.partial = c.partial+s, ""
	return strings.TrimRight(s, "\r\n"), nil
}

// nextLine reads one line, waiting through timeouts for as long as bytes
// of the line keep arriving.
func (c *Client) nextLine() (string, error) {
	for {
		before := len(c.partial)
		line, err := c.readLine()
		if err == nil {
			return line, nil
		}
		if isTimeout(err) && len(c.partial) > before {
			continue
		}
		return "", err
	}
}

// drain skips what is left of a truncated frame so its lines are not
// taken as the reply to the next command.
func (c *Client) drain() {
	f := c.stale
	c.stale = nil
	if f == nil {
		return
	}
	for {
		line, err := c.nextLine()
		if err != nil {
			c.partial = ""
			return
		}
		if f.ends(line) {
			return
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, serial.ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
