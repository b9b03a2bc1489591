package agent

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/rvalieris/hyperdrive/pkg/logger"
)

const bytesPerMB = 1 << 20

// Metrics is the running-maximum sample set emitted alongside the
// job's log, grounded on host.py's gather_metrics(): total memory and
// disk capacity captured once, running maxima tracked for the life of
// the job, core count, and per-core CPU usage summed rather than
// averaged — a fully loaded 8-core job peaks near 800%, matching
// psutil's `sum(cpu_percent(percpu=True))`.
type Metrics struct {
	TotMemMB    float64
	MaxMemMB    float64
	TotDiskMB   float64
	MaxDiskMB   float64
	MaxCPUUsage float64
	NCores      int
}

// SampleMetrics polls system usage at interval until ctx is canceled,
// tracking the running maximum of each signal.
func SampleMetrics(ctx context.Context, interval time.Duration, diskPath string) *Metrics {
	m := &Metrics{}
	if n, err := cpu.Counts(true); err == nil {
		m.NCores = n
	} else {
		logger.Debugf("counting cpus: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		m.sampleOnce(diskPath)
		select {
		case <-ctx.Done():
			return m
		case <-ticker.C:
		}
	}
}

func (m *Metrics) sampleOnce(diskPath string) {
	if vm, err := mem.VirtualMemory(); err == nil {
		if m.TotMemMB == 0 {
			m.TotMemMB = float64(vm.Total) / bytesPerMB
		}
		usedMB := float64(vm.Total-vm.Available) / bytesPerMB
		if usedMB > m.MaxMemMB {
			m.MaxMemMB = usedMB
		}
	} else {
		logger.Debugf("sampling memory: %v", err)
	}

	if du, err := disk.Usage(diskPath); err == nil {
		if m.TotDiskMB == 0 {
			m.TotDiskMB = float64(du.Total) / bytesPerMB
		}
		usedMB := float64(du.Used) / bytesPerMB
		if usedMB > m.MaxDiskMB {
			m.MaxDiskMB = usedMB
		}
	} else {
		logger.Debugf("sampling disk usage at %s: %v", diskPath, err)
	}

	if pcts, err := cpu.Percent(0, true); err == nil {
		var total float64
		for _, p := range pcts {
			total += p
		}
		if total > m.MaxCPUUsage {
			m.MaxCPUUsage = total
		}
	} else {
		logger.Debugf("sampling cpu: %v", err)
	}
}
