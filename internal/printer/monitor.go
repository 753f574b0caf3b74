package printer

import (
	"context"
	"log/slog"
	"time"
)

// Monitor rescans printers periodically and reports arrivals and removals
// through the manager's callbacks.
type Monitor struct {
	manager  *Manager
	interval time.Duration
	logger   *slog.Logger
	detect   func() []Device
	known    map[string]Device
}

// NewMonitor creates a monitor that rescans every interval
func NewMonitor(manager *Manager, interval time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Monitor{
		manager:  manager,
		interval: interval,
		logger:   logger,
		detect:   manager.DetectPrinters,
		known:    make(map[string]Device),
	}
}

// Run scans until ctx is cancelled. The first scan happens immediately.
func (m *Monitor) Run(ctx context.Context) {
	m.checkChanges()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkChanges()
		}
	}
}

func (m *Monitor) checkChanges() {
	current := make(map[string]Device)
	for _, d := range m.detect() {
		current[d.ID] = d
	}

	for id, d := range current {
		if _, exists := m.known[id]; !exists {
			m.logger.Info("printer added", "printer_id", id, "description", d.Description)
			m.manager.notifyAdded(d)
		}
	}

	for id, d := range m.known {
		if _, exists := current[id]; !exists {
			m.logger.Info("printer removed", "printer_id", id, "description", d.Description)
			m.manager.notifyRemoved(id)
		}
	}

	m.known = current
}
