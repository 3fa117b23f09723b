package observability

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedRegistry struct{ groups, connections int }

func (r fixedRegistry) Stats() (int, int) { return r.groups, r.connections }

func TestMonitoringManager_Snapshot(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default(), fixedRegistry{groups: 2, connections: 3})

	// Given some traffic
	mm.IncrMessagesStored()
	mm.IncrMessagesStored()
	mm.IncrMessagesDropped()
	mm.AddAttachmentBytes(1024)
	mm.AddAttachmentBytes(-5)
	mm.IncrNoticesPublished()
	mm.IncrRejectedConnections()

	// When taking a snapshot
	stats := mm.Snapshot()

	// Then counters and registry figures are reported
	req.Equal(2, stats.Groups)
	req.Equal(3, stats.Connections)
	req.Equal(uint64(2), stats.MessagesStored)
	req.Equal(uint64(1), stats.MessagesDropped)
	req.Equal(uint64(1024), stats.AttachmentBytes)
	req.Equal(uint64(1), stats.NoticesPublished)
	req.Equal(uint64(1), stats.RejectedConnections)
	req.Positive(stats.Goroutines)
}

func TestMonitoringManager_Nil_Is_Noop(t *testing.T) {
	var mm *MonitoringManager
	require.NotPanics(t, func() {
		mm.IncrMessagesStored()
		mm.IncrMessagesDropped()
		mm.AddAttachmentBytes(10)
		mm.IncrNoticesPublished()
		mm.IncrRejectedConnections()
	})
}
