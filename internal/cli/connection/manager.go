package connection

import (
	"errors"
	"sync"
	"time"
)

// ErrNotConnected is returned when no logger is connected.
var ErrNotConnected = errors.New("not connected")

// DialFunc opens a client for a connection.
type DialFunc func(conn *Connection, timeout time.Duration) (*Client, error)

// Manager holds the current connection.
type Manager struct {
	mu      sync.Mutex
	current *Connection
	client  *Client
	timeout time.Duration
	dial    DialFunc
}

// Connection describes a logger endpoint.
type Connection struct {
	Name    string
	Kind    Kind
	Address string
	Baud    int
}

// NewManager creates a manager that dials with Dial.
func NewManager() *Manager {
	return &Manager{timeout: DefaultTimeout, dial: Dial}
}

// SetTimeout sets the reply timeout used by later connections.
func (m *Manager) SetTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
}

// Connect dials conn and makes it current, closing any previous one. On
// failure the manager is left disconnected.
func (m *Manager) Connect(conn *Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()
	client, err := m.dial(conn, m.timeout)
	if err != nil {
		return err
	}
	m.current, m.client = conn, client
	return nil
}

// Disconnect closes the current connection.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeLocked()
}

func (m *Manager) closeLocked() error {
	var err error
	if m.client != nil {
		err = m.client.Close()
	}
	m.current, m.client = nil, nil
	return err
}

// Current returns the current connection.
func (m *Manager) Current() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Client returns the client of the current connection.
func (m *Manager) Client() (*Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil, ErrNotConnected
	}
	return m.client, nil
}

// IsConnected returns true if a logger is connected.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}
