// Package registry keeps stable printer IDs and user-set names across restarts
package registry

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Printer transports
const (
	TypeUSB     = "usb"
	TypeSerial  = "serial"
	TypeNetwork = "network"
)

// ErrNotFound is returned for IDs the registry has never issued
var ErrNotFound = errors.New("printer not registered")

// Registry maps printer identities to persistent IDs, stored as a JSON file
type Registry struct {
	filePath string
	data     map[string]*Entry
	logger   *slog.Logger
	mu       sync.RWMutex
}

// Entry is the stored record of one printer
type Entry struct {
	ID          string `json:"id"`
	IdentityKey string `json:"identity_key"`
	Type        string `json:"type"`
	VID         uint16 `json:"vid,omitempty"`
	PID         uint16 `json:"pid,omitempty"`
	Device      string `json:"device,omitempty"`
	Host        string `json:"host,omitempty"`
	Port        int    `json:"port,omitempty"`
	Description string `json:"description"`
	Name        string `json:"name,omitempty"`
}

// Identity describes a printer as seen during detection
type Identity struct {
	Type        string
	Description string
	Device      string
	VID         uint16
	PID         uint16
	Host        string
	Port        int
}

// New opens the registry at filePath. A missing file is created on first save.
func New(filePath string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Registry{
		filePath: filePath,
		data:     make(map[string]*Entry),
		logger:   logger,
	}

	if err := r.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	return r, nil
}

// ID returns the persistent ID for a printer, issuing a new one the first
// time the printer is seen.
func (r *Registry) ID(identity Identity) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := identityKey(identity)
	if entry, exists := r.data[key]; exists {
		return entry.ID
	}

	entry := &Entry{
		ID:          uuid.NewString(),
		IdentityKey: key,
		Type:        identity.Type,
		VID:         identity.VID,
		PID:         identity.PID,
		Device:      identity.Device,
		Host:        identity.Host,
		Port:        identity.Port,
		Description: identity.Description,
	}
	r.data[key] = entry

	// the ID stays valid in memory; saving is retried on the next change
	if err := r.save(); err != nil {
		r.logger.Warn("failed to save printer registry", "path", r.filePath, "error", err)
	}

	return entry.ID
}

// Name returns the user-set name for a printer, or "" if none is set
func (r *Registry) Name(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry := r.find(id); entry != nil {
		return entry.Name
	}
	return ""
}

// SetName sets and persists a printer's name
func (r *Registry) SetName(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.find(id)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	entry.Name = name
	return r.save()
}

// Get returns a copy of a printer's entry
func (r *Registry) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry := r.find(id)
	if entry == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *entry, nil
}

// Remove forgets a printer
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.find(id)
	if entry == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(r.data, entry.IdentityKey)
	return r.save()
}

// All returns copies of every entry
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.data))
	for _, entry := range r.data {
		entries = append(entries, *entry)
	}
	return entries
}

// find must be called with the lock held
func (r *Registry) find(id string) *Entry {
	for _, entry := range r.data {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &r.data)
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(r.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(r.filePath, data, 0o644)
}

// identityKey derives a stable key from whatever identifies the printer
// best on its transport, falling back to a hash of the description.
func identityKey(identity Identity) string {
	switch identity.Type {
	case TypeUSB:
		if identity.VID != 0 && identity.PID != 0 {
			return fmt.Sprintf("usb:%04X:%04X", identity.VID, identity.PID)
		}
	case TypeSerial:
		if identity.Device != "" {
			return "serial:" + identity.Device
		}
	case TypeNetwork:
		if identity.Host != "" {
			return fmt.Sprintf("network:%s:%d", identity.Host, identity.Port)
		}
	}

	sum := sha256.Sum256([]byte(identity.Description))
	return fmt.Sprintf("hash:%x", sum[:8])
}
