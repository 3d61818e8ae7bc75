package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"tradercore/internal/observability"
)

// SystemSample is the payload published on ChannelSystemEvent, grounded
// on internal/api/controllers/system_health_controller.go's
// cpu.Percent/mem.VirtualMemory sampling (trimmed to the fields a trading
// runtime's dashboard actually needs, dropping disk/network/PostgreSQL).
type SystemSample struct {
	Timestamp      time.Time
	CPUPercent     float64
	RAMUsedPercent float64
	RAMUsedGB      float64
	RAMTotalGB     float64
	GoroutineCount int
}

// SystemEventProducer periodically samples host CPU/RAM and publishes a
// SystemSample onto a Hub's ChannelSystemEvent until its context is
// cancelled.
type SystemEventProducer struct {
	log      *observability.Logger
	hub      *Hub
	interval time.Duration
}

// NewSystemEventProducer constructs a producer sampling every interval.
func NewSystemEventProducer(hub *Hub, interval time.Duration) *SystemEventProducer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SystemEventProducer{
		log:      observability.New("telemetry-system"),
		hub:      hub,
		interval: interval,
	}
}

// Run samples and publishes until ctx is cancelled.
func (p *SystemEventProducer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample, err := p.sample()
			if err != nil {
				p.log.Warnf(ctx, "system sample failed: %v", err)
				continue
			}
			p.hub.Publish(ChannelSystemEvent, sample)
		}
	}
}

func (p *SystemEventProducer) sample() (SystemSample, error) {
	cpuPercents, err := cpu.Percent(0, false)
	if err != nil {
		return SystemSample{}, err
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return SystemSample{}, err
	}

	return SystemSample{
		Timestamp:      time.Now(),
		CPUPercent:     cpuPercent,
		RAMUsedPercent: vmStat.UsedPercent,
		RAMUsedGB:      float64(vmStat.Used) / (1 << 30),
		RAMTotalGB:     float64(vmStat.Total) / (1 << 30),
		GoroutineCount: runtime.NumGoroutine(),
	}, nil
}
