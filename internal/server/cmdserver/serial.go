// Package cmdserver provides the line-oriented command protocol.
package cmdserver

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/goburrow/serial"
)

// SerialConfig configures the UART behind the Bluetooth SPP bridge.
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	StopBits int
	// Parity is "N", "E" or "O".
	Parity string
	// Timeout bounds each read so the serving loop can observe shutdown.
	Timeout time.Duration
}

// DefaultSerialConfig returns 115200 8N1 with a one second read timeout.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		Port:     "/dev/ttyS0",
		BaudRate: 115200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  time.Second,
	}
}

// OpenSerial opens the configured serial port.
func OpenSerial(cfg SerialConfig) (io.ReadWriteCloser, error) {
	return serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	})
}

// isReadTimeout reports whether err is a read timeout rather than a failure.
func isReadTimeout(err error) bool {
	if errors.Is(err, serial.ErrTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
