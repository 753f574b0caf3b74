// Package printer implements receipt printers: a recording reference
// printer, an ESC/POS encoder, and delivery of encoded receipts to USB,
// serial and network devices.
package printer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/gousb"
	"github.com/tarm/serial"

	"github.com/thereceipt/receipt-interpreter/internal/registry"
)

// Device transports
const (
	TypeUSB     = registry.TypeUSB
	TypeSerial  = registry.TypeSerial
	TypeNetwork = registry.TypeNetwork
)

// Device is a physical printer known to the manager
type Device struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Device      string `json:"device,omitempty"`
	VID         uint16 `json:"vid,omitempty"`
	PID         uint16 `json:"pid,omitempty"`
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Manager tracks detected and manually added printers
type Manager struct {
	registry *registry.Registry
	devices  map[string]*Device
	logger   *slog.Logger
	mu       sync.RWMutex

	onAdded   func(Device)
	onRemoved func(string)
}

// NewManager creates a manager backed by the registry at registryPath
func NewManager(registryPath string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	reg, err := registry.New(registryPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return &Manager{
		registry: reg,
		devices:  make(map[string]*Device),
		logger:   logger,
	}, nil
}

// DetectPrinters rescans USB and serial printers. Network printers are kept.
func (m *Manager) DetectPrinters() []Device {
	var detected []*Device

	if usb, err := m.detectUSB(); err != nil {
		m.logger.Warn("USB detection failed", "error", err)
	} else {
		detected = append(detected, usb...)
	}
	detected = append(detected, m.detectSerial()...)

	m.mu.Lock()
	for id, d := range m.devices {
		if d.Type != TypeNetwork {
			delete(m.devices, id)
		}
	}
	for _, d := range detected {
		m.devices[d.ID] = d
	}
	m.mu.Unlock()

	return m.Devices()
}

// Device returns a copy of a device by ID
func (m *Manager) Device(id string) (Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.devices[id]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// Devices returns copies of all known devices ordered by ID
func (m *Manager) Devices() []Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// SetName renames a printer and persists the name
func (m *Manager) SetName(id, name string) error {
	if err := m.registry.SetName(id, name); err != nil {
		return err
	}

	m.mu.Lock()
	if d, exists := m.devices[id]; exists {
		d.Name = name
	}
	m.mu.Unlock()

	return nil
}

// AddNetworkPrinter registers a printer reachable over TCP and returns its ID
func (m *Manager) AddNetworkPrinter(host string, port int, description string) string {
	if port == 0 {
		port = DefaultNetworkPort
	}
	if description == "" {
		description = fmt.Sprintf("Network: %s:%d", host, port)
	}

	id := m.registry.ID(registry.Identity{
		Type:        TypeNetwork,
		Host:        host,
		Port:        port,
		Description: description,
	})

	d := &Device{
		ID:          id,
		Type:        TypeNetwork,
		Description: description,
		Host:        host,
		Port:        port,
		Name:        m.registry.Name(id),
	}

	m.mu.Lock()
	_, existed := m.devices[id]
	m.devices[id] = d
	onAdded := m.onAdded
	m.mu.Unlock()

	if !existed && onAdded != nil {
		onAdded(*d)
	}
	return id
}

// RemovePrinter forgets a printer and its name. A USB or serial printer that
// is still attached comes back with a new ID on the next detection.
func (m *Manager) RemovePrinter(id string) error {
	if err := m.registry.Remove(id); err != nil {
		return err
	}

	m.mu.Lock()
	_, existed := m.devices[id]
	delete(m.devices, id)
	m.mu.Unlock()

	if existed {
		m.notifyRemoved(id)
	}
	return nil
}

// OnPrinterAdded sets the callback run when a printer appears
func (m *Manager) OnPrinterAdded(callback func(Device)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onAdded = callback
}

// OnPrinterRemoved sets the callback run when a printer disappears
func (m *Manager) OnPrinterRemoved(callback func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onRemoved = callback
}

func (m *Manager) notifyAdded(d Device) {
	m.mu.RLock()
	cb := m.onAdded
	m.mu.RUnlock()

	if cb != nil {
		cb(d)
	}
}

func (m *Manager) notifyRemoved(id string) {
	m.mu.RLock()
	cb := m.onRemoved
	m.mu.RUnlock()

	if cb != nil {
		cb(id)
	}
}

// detectUSB lists devices of the printer class, by device or interface
func (m *Manager) detectUSB() ([]*Device, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var found []*Device

	// descriptors are enough, so the filter never asks to open a device
	_, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if !isPrinterClass(desc) {
			return false
		}

		description := fmt.Sprintf("USB: %04X:%04X", uint16(desc.Vendor), uint16(desc.Product))
		identity := registry.Identity{
			Type:        TypeUSB,
			VID:         uint16(desc.Vendor),
			PID:         uint16(desc.Product),
			Description: description,
		}
		id := m.registry.ID(identity)

		found = append(found, &Device{
			ID:          id,
			Type:        TypeUSB,
			Description: description,
			VID:         identity.VID,
			PID:         identity.PID,
			Name:        m.registry.Name(id),
		})
		return false
	})
	if err != nil {
		return found, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	return found, nil
}

func isPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

// detectSerial lists serial ports that can be opened
func (m *Manager) detectSerial() []*Device {
	var found []*Device

	for _, path := range candidateSerialPorts(true) {
		port, err := serial.OpenPort(&serial.Config{Name: path, Baud: DefaultBaud})
		if err != nil {
			continue
		}
		port.Close()

		description := "Serial: " + filepath.Base(path)
		id := m.registry.ID(registry.Identity{
			Type:        TypeSerial,
			Device:      path,
			Description: description,
		})

		found = append(found, &Device{
			ID:          id,
			Type:        TypeSerial,
			Description: description,
			Device:      path,
			Name:        m.registry.Name(id),
		})
	}

	return found
}
