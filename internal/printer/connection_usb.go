package printer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

// USBConnection is an open bulk OUT endpoint on a USB printer
type USBConnection struct {
	ctx      *gousb.Context
	device   *gousb.Device
	config   *gousb.Config
	iface    *gousb.Interface
	release  func()
	endpoint *gousb.OutEndpoint
	mu       sync.Mutex
}

// ConnectUSB opens the first printer matching vid:pid and claims an
// interface with an OUT endpoint. It fails when libusb is unavailable.
func ConnectUSB(vid, pid uint16) (*USBConnection, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("USB device not found: %04X:%04X", vid, pid)
	}

	conn := &USBConnection{ctx: ctx, device: dev}

	// most printers expose the OUT endpoint on interface 0
	iface, done, err := dev.DefaultInterface()
	if err != nil {
		_ = dev.SetAutoDetach(true)
		iface, done, err = dev.DefaultInterface()
	}
	if err == nil {
		if ep := outEndpoint(iface); ep != nil {
			conn.iface, conn.release, conn.endpoint = iface, done, ep
			return conn, nil
		}
		done()
	}

	if err := conn.claimAny(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to USB printer %04X:%04X: %w", vid, pid, err)
	}
	return conn, nil
}

// claimAny walks the active configuration first, then every other one,
// until some interface has an OUT endpoint.
func (c *USBConnection) claimAny() error {
	var configs []int
	if active, err := c.device.ActiveConfigNum(); err == nil && active > 0 {
		configs = append(configs, active)
	}
	for num := range c.device.Desc.Configs {
		if len(configs) == 0 || num != configs[0] {
			configs = append(configs, num)
		}
	}

	lastErr := errors.New("no interface with an OUT endpoint")
	for _, num := range configs {
		cfg, err := c.device.Config(num)
		if err != nil {
			lastErr = fmt.Errorf("failed to set config %d: %w", num, err)
			continue
		}

		for _, ifaceDesc := range c.device.Desc.Configs[num].Interfaces {
			iface, err := claimInterface(cfg, ifaceDesc.Number)
			if err != nil {
				lastErr = err
				continue
			}
			if ep := outEndpoint(iface); ep != nil {
				c.config, c.iface, c.endpoint = cfg, iface, ep
				return nil
			}
			iface.Close()
		}
		cfg.Close()
	}

	return lastErr
}

// claimInterface retries once after a short pause; some devices need a
// moment after the kernel driver is detached.
func claimInterface(cfg *gousb.Config, num int) (*gousb.Interface, error) {
	iface, err := cfg.Interface(num, 0)
	if err == nil {
		return iface, nil
	}

	time.Sleep(100 * time.Millisecond)
	iface, err = cfg.Interface(num, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to claim interface %d: %w", num, err)
	}
	return iface, nil
}

func outEndpoint(iface *gousb.Interface) *gousb.OutEndpoint {
	for _, desc := range iface.Setting.Endpoints {
		if desc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		if ep, err := iface.OutEndpoint(desc.Number); err == nil {
			return ep
		}
	}
	return nil
}

// Write sends raw bytes to the printer
func (c *USBConnection) Write(data []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.endpoint.Write(data)
}

// Close releases the interface, device and libusb context
func (c *USBConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.release != nil {
		c.release()
		c.release = nil
	} else if c.iface != nil {
		c.iface.Close()
	}
	c.iface = nil

	if c.config != nil {
		c.config.Close()
		c.config = nil
	}

	var err error
	if c.device != nil {
		err = c.device.Close()
		c.device = nil
	}
	if c.ctx != nil {
		c.ctx.Close()
		c.ctx = nil
	}
	return err
}
