package workers

import (
	"context"
	"log/slog"
	"social-chat/contract"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedBacklogs []contract.Backlog

func (f fixedBacklogs) Backlogs() []contract.Backlog { return f }

func TestChannelCapacityWorker_Sample(t *testing.T) {
	req := require.New(t)

	// Given one idle session and one nearly full
	worker := NewChannelCapacityWorker(slog.Default(), fixedBacklogs{
		{Group: "chat_1_2", Length: 0, Capacity: 64},
		{Group: "user_1", Length: 60, Capacity: 64},
	}, time.Hour)

	// When sampling once
	saturated := worker.sample()

	// Then only the full one is reported
	req.Equal(1, saturated)
}

func TestSaturated(t *testing.T) {
	req := require.New(t)
	req.True(Saturated(contract.Backlog{Length: 8, Capacity: 10}))
	req.False(Saturated(contract.Backlog{Length: 7, Capacity: 10}))
	req.False(Saturated(contract.Backlog{Length: 0, Capacity: 0}))
}

func TestChannelCapacityWorker_Stops_With_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewChannelCapacityWorker(slog.Default(), fixedBacklogs{}, time.Hour).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
