package runtime

import (
	"context"
	"log/slog"
	"social-chat/domain/chat"
	"social-chat/mocks"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNotifier_Publish_Targets_Personal_Group(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIRegistry(ctrl)
	notifier := NewNotifier(registry, slog.Default())

	var got chat.Event
	registry.EXPECT().
		Broadcast(gomock.Any(), chat.GroupKey("user_42"), gomock.Any()).
		Do(func(_ context.Context, _ chat.GroupKey, e chat.Event) { got = e })

	// When publishing a notice for user 42
	notifier.Publish(42, "bob sent you a chat request")

	// Then a notification event is broadcast on user_42
	req.NotNil(got)
	req.Equal(chat.EventNotification, got.Type())
	req.Equal("bob sent you a chat request", got.(chat.Notice).Message)
}

func TestNotifier_Publish_Without_Listener_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry()
	notifier := NewNotifier(registry, slog.Default())

	notifier.Publish(42, "nobody listens")

	groups, connections := registry.Stats()
	req.Zero(groups)
	req.Zero(connections)
}
