// Package health reports readiness of the service and its dependencies.
package health

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Status is the health check response.
type Status struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// SystemStats is the admin-only system detail response.
type SystemStats struct {
	UptimeSeconds  uint64  `json:"uptime_seconds"`
	MemoryUsedPct  float64 `json:"memory_used_pct"`
	MemoryTotalMB  uint64  `json:"memory_total_mb"`
	Load1          float64 `json:"load_1"`
	Load5          float64 `json:"load_5"`
	Load15         float64 `json:"load_15"`
}

// Service checks the backing dependencies.
type Service struct {
	deps map[string]Pinger
}

// NewService creates a health service over named dependencies.
func NewService(deps map[string]Pinger) *Service {
	return &Service{deps: deps}
}

// Check pings every dependency. Status is "ok" only when all respond.
func (s *Service) Check(ctx context.Context) Status {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := Status{Status: "ok", Dependencies: make(map[string]string, len(s.deps))}
	for name, dep := range s.deps {
		if err := dep.Ping(checkCtx); err != nil {
			status.Status = "unavailable"
			status.Dependencies[name] = err.Error()
			continue
		}
		status.Dependencies[name] = "ok"
	}
	return status
}

// System gathers host-level statistics.
func (s *Service) System(ctx context.Context) (SystemStats, error) {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return SystemStats{}, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return SystemStats{}, err
	}
	stats := SystemStats{
		UptimeSeconds: uptime,
		MemoryUsedPct: vm.UsedPercent,
		MemoryTotalMB: vm.Total / (1 << 20),
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.Load1 = avg.Load1
		stats.Load5 = avg.Load5
		stats.Load15 = avg.Load15
	}
	return stats, nil
}
