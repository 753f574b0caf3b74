package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "printers.json")
	reg, err := New(path, nil)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	return reg, path
}

func TestNew_MissingFile(t *testing.T) {
	reg, path := newTestRegistry(t)

	if len(reg.All()) != 0 {
		t.Errorf("expected empty registry, got %d entries", len(reg.All()))
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no file before first save, got %v", err)
	}
}

func TestNew_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "printers.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path, nil); err == nil {
		t.Error("expected error for corrupt registry file")
	}
}

func TestID_StablePerTransport(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
	}{
		{"usb", Identity{Type: TypeUSB, VID: 0x04B8, PID: 0x0E15, Description: "Epson TM-T20"}},
		{"serial", Identity{Type: TypeSerial, Device: "/dev/ttyUSB0", Description: "Serial Printer"}},
		{"network", Identity{Type: TypeNetwork, Host: "192.168.1.100", Port: 9100, Description: "Kitchen"}},
		{"description only", Identity{Type: TypeUSB, Description: "No IDs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _ := newTestRegistry(t)

			id1 := reg.ID(tt.identity)
			if id1 == "" {
				t.Fatal("expected non-empty printer ID")
			}
			if id2 := reg.ID(tt.identity); id1 != id2 {
				t.Errorf("expected same ID for same printer: %s != %s", id1, id2)
			}
		})
	}
}

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		identity Identity
		want     string
	}{
		{Identity{Type: TypeUSB, VID: 0x04B8, PID: 0x0E15}, "usb:04B8:0E15"},
		{Identity{Type: TypeSerial, Device: "/dev/ttyS0"}, "serial:/dev/ttyS0"},
		{Identity{Type: TypeNetwork, Host: "10.0.0.5", Port: 9100}, "network:10.0.0.5:9100"},
	}

	for _, tt := range tests {
		if got := identityKey(tt.identity); got != tt.want {
			t.Errorf("identityKey(%+v) = %q, want %q", tt.identity, got, tt.want)
		}
	}

	if got := identityKey(Identity{Type: TypeNetwork, Description: "x"}); !strings.HasPrefix(got, "hash:") {
		t.Errorf("expected hash fallback, got %q", got)
	}
}

func TestSetName(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := reg.ID(Identity{Type: TypeUSB, VID: 0x04B8, PID: 0x0E15, Description: "Test Printer"})

	if err := reg.SetName(id, "Kitchen Printer"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if name := reg.Name(id); name != "Kitchen Printer" {
		t.Errorf("expected 'Kitchen Printer', got %q", name)
	}

	if err := reg.SetName("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := reg.ID(Identity{Type: TypeUSB, VID: 0x04B8, PID: 0x0E15, Description: "Test Printer"})
	_ = reg.SetName(id, "Front Counter")

	entry, err := reg.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Type != TypeUSB {
		t.Errorf("expected type usb, got %q", entry.Type)
	}
	if entry.VID != 0x04B8 {
		t.Errorf("expected VID 0x04B8, got 0x%04X", entry.VID)
	}
	if entry.Name != "Front Counter" {
		t.Errorf("expected name 'Front Counter', got %q", entry.Name)
	}
}

func TestRemove(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := reg.ID(Identity{Type: TypeUSB, VID: 0x1234, PID: 0x5678, Description: "Test"})

	if err := reg.Remove(id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := reg.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after removal, got %v", err)
	}
	if err := reg.Remove(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second removal, got %v", err)
	}
}

func TestPersistence(t *testing.T) {
	reg1, path := newTestRegistry(t)
	identity := Identity{Type: TypeUSB, VID: 0xAAAA, PID: 0xBBBB, Description: "Persistent Printer"}
	id1 := reg1.ID(identity)
	_ = reg1.SetName(id1, "Persistent Name")

	// reopen as after a restart
	reg2, err := New(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	if id2 := reg2.ID(identity); id1 != id2 {
		t.Errorf("expected same ID after reload: %s != %s", id1, id2)
	}
	if name := reg2.Name(id1); name != "Persistent Name" {
		t.Errorf("expected name to persist, got %q", name)
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "printers.json")
	reg, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	reg.ID(Identity{Type: TypeSerial, Device: "/dev/tty1", Description: "Printer"})

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected registry file to be written: %v", err)
	}
}

func TestAll(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.ID(Identity{Type: TypeUSB, VID: 0x1111, PID: 0x2222, Description: "Printer 1"})
	reg.ID(Identity{Type: TypeSerial, Device: "/dev/tty1", Description: "Printer 2"})

	if all := reg.All(); len(all) != 2 {
		t.Errorf("expected 2 printers, got %d", len(all))
	}
}
