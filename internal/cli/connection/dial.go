package connection

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goburrow/serial"
)

// Kind is a transport kind.
type Kind string

const (
	KindTCP    Kind = "tcp"
	KindUnix   Kind = "unix"
	KindSerial Kind = "serial"
)

// DefaultBaud is the SPP bridge's baud rate.
const DefaultBaud = 115200

// ParseTarget parses a target address. Accepted forms:
//
//	tcp://host:port        host:port
//	unix:///run/x.sock     /run/x.sock
//	serial:///dev/rfcomm0?baud=9600
//
// Bare paths under /dev are serial ports.
func ParseTarget(s string) (*Connection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty target")
	}

	if !strings.Contains(s, "://") {
		switch {
		case strings.HasPrefix(s, "/dev/"):
			return &Connection{Name: s, Kind: KindSerial, Address: s, Baud: DefaultBaud}, nil
		case strings.HasPrefix(s, "/") || strings.HasPrefix(s, "."):
			return &Connection{Name: s, Kind: KindUnix, Address: s}, nil
		default:
			if _, _, err := net.SplitHostPort(s); err != nil {
				return nil, fmt.Errorf("invalid target %q: %w", s, err)
			}
			return &Connection{Name: s, Kind: KindTCP, Address: s}, nil
		}
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", s, err)
	}
	conn := &Connection{Name: s}
	switch Kind(u.Scheme) {
	case KindTCP:
		conn.Kind, conn.Address = KindTCP, u.Host
	case KindUnix:
		conn.Kind, conn.Address = KindUnix, u.Path
	case KindSerial:
		conn.Kind, conn.Address, conn.Baud = KindSerial, u.Path, DefaultBaud
		if b := u.Query().Get("baud"); b != "" {
			baud, err := strconv.Atoi(b)
			if err != nil || baud <= 0 {
				return nil, fmt.Errorf("invalid baud rate %q", b)
			}
			conn.Baud = baud
		}
	default:
		return nil, fmt.Errorf("unsupported target scheme %q", u.Scheme)
	}
	if conn.Address == "" {
		return nil, fmt.Errorf("target %q has no address", s)
	}
	return conn, nil
}

// Dial opens the transport described by conn.
func Dial(conn *Connection, timeout time.Duration) (*Client, error) {
	switch conn.Kind {
	case KindTCP, KindUnix:
		nc, err := net.DialTimeout(string(conn.Kind), conn.Address, timeout)
		if err != nil {
			return nil, err
		}
		return NewClient(nc, timeout), nil
	case KindSerial:
		baud := conn.Baud
		if baud == 0 {
			baud = DefaultBaud
		}
		port, err := serial.Open(&serial.Config{
			Address:  conn.Address,
			BaudRate: baud,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", conn.Address, err)
		}
		return NewClient(port, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", conn.Kind)
	}
}
