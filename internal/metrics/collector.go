package metrics

import (
	"time"

	"media-inspector/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current helper statistics
type Stats struct {
	RunningProcesses int
	VipsAvailable    bool
	StartTime        time.Time
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	ProcessesRunning.Set(float64(stats.RunningProcesses))
	if stats.VipsAvailable {
		VipsAvailable.Set(1)
	} else {
		VipsAvailable.Set(0)
	}
	if !stats.StartTime.IsZero() {
		UptimeSeconds.Set(time.Since(stats.StartTime).Seconds())
	}

	logging.Debug("Metrics collected: processes=%d, vips=%v", stats.RunningProcesses, stats.VipsAvailable)
}
