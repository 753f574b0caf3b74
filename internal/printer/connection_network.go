package printer

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// DefaultNetworkPort is the raw printing port of most network receipt printers
const DefaultNetworkPort = 9100

const networkDialTimeout = 5 * time.Second

// NetworkConnection is a raw TCP connection to a network printer
type NetworkConnection struct {
	conn net.Conn
	mu   sync.Mutex
}

// ConnectNetwork dials a network printer. A zero port uses DefaultNetworkPort.
func ConnectNetwork(host string, port int) (*NetworkConnection, error) {
	if port == 0 {
		port = DefaultNetworkPort
	}

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), networkDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}

	return &NetworkConnection{conn: conn}, nil
}

// Write sends raw bytes to the printer
func (c *NetworkConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.Write(data)
}

// Close closes the TCP connection
func (c *NetworkConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
