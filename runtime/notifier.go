package runtime

import (
	"context"
	"log/slog"
	"social-chat/contract"
	"social-chat/domain/chat"
	"time"
)

// Notifier is a best-effort fan-out of notices to personal user channels.
// It shares the registry with chat rooms but only ever targets user_{id} groups.
// Nothing is persisted here and nobody is told when a notice is dropped.
type Notifier struct {
	registry contract.IRegistry
	log      *slog.Logger
}

func NewNotifier(registry contract.IRegistry, log *slog.Logger) *Notifier {
	return &Notifier{registry: registry, log: log}
}

// Publish pushes a notice to every live notification session of the user.
// It is a no-op when the user has none.
func (n *Notifier) Publish(user chat.UserID, message string) {
	n.log.Debug("Publishing notice", "user_id", user)
	n.registry.Broadcast(context.Background(), chat.UserGroup(user), chat.Notice{
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}
