package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceSample is one reading of host CPU and memory usage.
type ResourceSample struct {
	CPUPercent float64   `json:"cpu_percent"`
	MemPercent float64   `json:"mem_percent"`
	SampledAt  time.Time `json:"sampled_at"`
}

// sampleFunc reads the host once. Swapped out in tests.
type sampleFunc func() (ResourceSample, error)

// ResourceMonitor periodically samples host resources so status requests
// never block on a CPU measurement.
type ResourceMonitor struct {
	sample   sampleFunc
	warnAt   float64
	log      zerolog.Logger
	mu       sync.RWMutex
	latest   ResourceSample
	hasValue bool
}

// NewResourceMonitor creates a monitor that warns when CPU or memory usage
// crosses warnAt percent.
func NewResourceMonitor(warnAt float64, log zerolog.Logger) *ResourceMonitor {
	return &ResourceMonitor{
		sample: readHost,
		warnAt: warnAt,
		log:    log.With().Str("component", "resource_monitor").Logger(),
	}
}

// Start samples every interval until ctx is cancelled.
func (m *ResourceMonitor) Start(ctx context.Context, interval time.Duration) {
	go m.monitor(ctx, interval)
}

func (m *ResourceMonitor) monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do initial check
	m.check()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *ResourceMonitor) check() {
	s, err := m.sample()
	if err != nil {
		m.log.Warn().Err(err).Msg("Failed to sample host resources")
		return
	}

	m.mu.Lock()
	m.latest = s
	m.hasValue = true
	m.mu.Unlock()

	if s.CPUPercent >= m.warnAt || s.MemPercent >= m.warnAt {
		m.log.Warn().
			Float64("cpu_percent", s.CPUPercent).
			Float64("mem_percent", s.MemPercent).
			Msg("Host resources under pressure")
	}
}

// Latest returns the most recent sample and whether one has been taken.
func (m *ResourceMonitor) Latest() (ResourceSample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.hasValue
}

func readHost() (ResourceSample, error) {
	// 100ms keeps the reading responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return ResourceSample{}, err
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		return ResourceSample{}, err
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return ResourceSample{
		CPUPercent: cpuAvg,
		MemPercent: memStat.UsedPercent,
		SampledAt:  time.Now(),
	}, nil
}
