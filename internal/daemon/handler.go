package daemon

import (
	"github.com/watchpost/watchpost/internal/monitor"
)

// MonitorHandler adapts a running monitor to the RPC handler surface.
type MonitorHandler struct {
	m *monitor.Monitor
}

// NewMonitorHandler wraps a monitor for the status server.
func NewMonitorHandler(m *monitor.Monitor) *MonitorHandler {
	return &MonitorHandler{m: m}
}

func (h *MonitorHandler) StatusSnapshot() StatusResult {
	return StatusResult{
		Directories: h.m.Status(),
		Cooldowns:   h.m.CooldownCount(),
	}
}

func (h *MonitorHandler) FlushDirectory(dir string) error {
	return h.m.Flush(dir)
}
