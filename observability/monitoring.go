package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

// Stats is the snapshot served by /debug/stats and logged by the stats reporter.
type Stats struct {
	// --- REGISTRY ---
	Groups      int `json:"groups"`
	Connections int `json:"connections"`

	// --- TRAFFIC ---
	MessagesStored      uint64 `json:"messages_stored"`
	MessagesDropped     uint64 `json:"messages_dropped"`
	AttachmentBytes     uint64 `json:"attachment_bytes"`
	NoticesPublished    uint64 `json:"notices_published"`
	RejectedConnections uint64 `json:"rejected_connections"`

	// --- PROCESS ---
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
}

// RegistryStats is implemented by the connection registry.
type RegistryStats interface {
	Stats() (groups int, connections int)
}

// MonitoringManager aggregates traffic counters and process metrics.
// A nil manager is valid and records nothing.
type MonitoringManager struct {
	log      *slog.Logger
	registry RegistryStats

	procOnce sync.Once
	proc     *process.Process

	messagesStored      atomic.Uint64
	messagesDropped     atomic.Uint64
	attachmentBytes     atomic.Uint64
	noticesPublished    atomic.Uint64
	rejectedConnections atomic.Uint64
}

func NewMonitoringManager(log *slog.Logger, registry RegistryStats) *MonitoringManager {
	return &MonitoringManager{log: log, registry: registry}
}

func (mm *MonitoringManager) IncrMessagesStored() {
	if mm != nil {
		mm.messagesStored.Add(1)
	}
}

func (mm *MonitoringManager) IncrMessagesDropped() {
	if mm != nil {
		mm.messagesDropped.Add(1)
	}
}

func (mm *MonitoringManager) AddAttachmentBytes(n int) {
	if mm != nil && n > 0 {
		mm.attachmentBytes.Add(uint64(n))
	}
}

func (mm *MonitoringManager) IncrNoticesPublished() {
	if mm != nil {
		mm.noticesPublished.Add(1)
	}
}

func (mm *MonitoringManager) IncrRejectedConnections() {
	if mm != nil {
		mm.rejectedConnections.Add(1)
	}
}

// Snapshot reads every counter and samples the current process.
// Process metrics are left at zero when the OS refuses to report them.
func (mm *MonitoringManager) Snapshot() Stats {
	stats := Stats{
		MessagesStored:      mm.messagesStored.Load(),
		MessagesDropped:     mm.messagesDropped.Load(),
		AttachmentBytes:     mm.attachmentBytes.Load(),
		NoticesPublished:    mm.noticesPublished.Load(),
		RejectedConnections: mm.rejectedConnections.Load(),
		Goroutines:          runtime.NumGoroutine(),
	}
	if mm.registry != nil {
		stats.Groups, stats.Connections = mm.registry.Stats()
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC

	if p := mm.process(); p != nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			stats.RSSBytes = memInfo.RSS
		} else {
			mm.log.Debug("Failed to read process memory", "error", err)
		}
		if cpu, err := p.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		} else {
			mm.log.Debug("Failed to read process cpu", "error", err)
		}
	}
	return stats
}

func (mm *MonitoringManager) process() *process.Process {
	mm.procOnce.Do(func() {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			mm.log.Warn("Process metrics unavailable", "error", err)
			return
		}
		mm.proc = p
	})
	return mm.proc
}
