package printer

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Connection is an open byte stream to a printer of any transport
type Connection interface {
	io.Writer
	io.Closer
}

// Connector opens a connection to a device
type Connector func(device *Device) (Connection, error)

// ConnectionPool keeps one open connection per device
type ConnectionPool struct {
	connections map[string]Connection
	connect     Connector
	logger      *slog.Logger
	mu          sync.RWMutex
}

// PoolOption configures a ConnectionPool
type PoolOption func(*ConnectionPool)

// WithConnector replaces how connections are opened
func WithConnector(c Connector) PoolOption {
	return func(p *ConnectionPool) {
		p.connect = c
	}
}

// WithPoolLogger sets the pool's logger
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *ConnectionPool) {
		p.logger = l
	}
}

// NewConnectionPool creates an empty pool that opens USB, serial and
// network connections
func NewConnectionPool(opts ...PoolOption) *ConnectionPool {
	p := &ConnectionPool{
		connections: make(map[string]Connection),
		logger:      slog.New(slog.DiscardHandler),
	}
	p.connect = p.connectDevice
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect opens a connection to device unless one is already open
func (p *ConnectionPool) Connect(device *Device) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.connections[device.ID]; exists {
		return nil
	}

	conn, err := p.connect(device)
	if err != nil {
		return err
	}

	p.connections[device.ID] = conn
	p.logger.Info("printer connected", "printer_id", device.ID, "type", device.Type)
	return nil
}

func (p *ConnectionPool) connectDevice(device *Device) (Connection, error) {
	switch device.Type {
	case TypeUSB:
		conn, err := ConnectUSB(device.VID, device.PID)
		if err == nil {
			return conn, nil
		}
		if runtime.GOOS != "darwin" {
			return nil, err
		}
		// macOS often exposes USB printers only as serial ports
		for _, port := range candidateSerialPorts(false) {
			if serialConn, serialErr := ConnectSerial(port, DefaultBaud); serialErr == nil {
				p.logger.Warn("USB connection failed, using serial port", "printer_id", device.ID, "port", port, "error", err)
				return serialConn, nil
			}
		}
		return nil, err
	case TypeSerial:
		conn, err := ConnectSerial(device.Device, DefaultBaud)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case TypeNetwork:
		conn, err := ConnectNetwork(device.Host, device.Port)
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unsupported printer type: %s", device.Type)
	}
}

// Send writes a complete payload to a connected device. A failed write
// drops the connection so the next attempt reconnects.
func (p *ConnectionPool) Send(deviceID string, payload []byte) error {
	p.mu.RLock()
	conn, exists := p.connections[deviceID]
	p.mu.RUnlock()

	if !exists {
		return fmt.Errorf("printer not connected: %s", deviceID)
	}

	for len(payload) > 0 {
		n, err := conn.Write(payload)
		if err != nil {
			_ = p.Disconnect(deviceID)
			return fmt.Errorf("failed to write to printer %s: %w", deviceID, err)
		}
		payload = payload[n:]
	}
	return nil
}

// Disconnect closes a device's connection if open
func (p *ConnectionPool) Disconnect(deviceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conn, exists := p.connections[deviceID]
	if !exists {
		return nil
	}

	delete(p.connections, deviceID)
	p.logger.Info("printer disconnected", "printer_id", deviceID)
	return conn.Close()
}

// DisconnectAll closes every open connection
func (p *ConnectionPool) DisconnectAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, conn := range p.connections {
		if err := conn.Close(); err != nil {
			p.logger.Warn("failed to close printer connection", "printer_id", id, "error", err)
		}
		delete(p.connections, id)
	}
}

// IsConnected reports whether a device has an open connection
func (p *ConnectionPool) IsConnected(deviceID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, exists := p.connections[deviceID]
	return exists
}

var darwinSkipPatterns = []string{"Bluetooth", "Modem", "SPP", "DialIn", "Callout", "KeySerial", "debug-console"}

// candidateSerialPorts lists device paths that may be printers on this OS.
// withOnboard adds built-in UARTs and Windows COM ports.
func candidateSerialPorts(withOnboard bool) []string {
	var ports []string

	switch runtime.GOOS {
	case "darwin":
		cuPorts, _ := filepath.Glob("/dev/cu.*")
		ttyPorts, _ := filepath.Glob("/dev/tty.*")
		for _, port := range append(cuPorts, ttyPorts...) {
			if !containsAny(port, darwinSkipPatterns) {
				ports = append(ports, port)
			}
		}
	case "linux":
		for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
			matches, _ := filepath.Glob(pattern)
			ports = append(ports, matches...)
		}
		if withOnboard {
			matches, _ := filepath.Glob("/dev/ttyS*")
			ports = append(ports, matches...)
		}
	case "windows":
		if withOnboard {
			for i := 1; i <= 256; i++ {
				ports = append(ports, fmt.Sprintf("COM%d", i))
			}
		}
	}

	return ports
}

func containsAny(s string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(s, pattern) {
			return true
		}
	}
	return false
}
