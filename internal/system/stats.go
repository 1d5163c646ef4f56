package system

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a snapshot of this process' resource usage.
type Stats struct {
	RSS        uint64
	CPUPercent float64
	Uptime     time.Duration
}

// ProcessStats samples the current process with gopsutil.
func ProcessStats(started time.Time) (Stats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Stats{}, fmt.Errorf("process stats: %w", err)
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return Stats{}, fmt.Errorf("memory info: %w", err)
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return Stats{}, fmt.Errorf("cpu percent: %w", err)
	}
	return Stats{
		RSS:        mem.RSS,
		CPUPercent: cpu,
		Uptime:     time.Since(started),
	}, nil
}

func (s Stats) String() string {
	return fmt.Sprintf("RSS: %.1f MiB | CPU: %.1f%% | Uptime: %.2fs",
		float64(s.RSS)/(1<<20), s.CPUPercent, s.Uptime.Seconds())
}
