package services

import (
	"context"
	"log/slog"
	"social-chat/contract"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"social-chat/observability"
	"social-chat/repositories"
	"time"

	"github.com/samber/lo"
)

const DefaultNotificationLimit = 20

type INotificationService interface {
	Notify(ctx context.Context, n social.Notification, text string) (social.Notification, error)
	List(ctx context.Context, user chat.UserID, limit int) ([]NotificationView, error)
	MarkRead(ctx context.Context, user chat.UserID, id int64) error
}

// NotificationView is a stored notification rendered for its recipient.
type NotificationView struct {
	ID         int64             `json:"id"`
	Actor      string            `json:"actor"`
	Message    string            `json:"message"`
	TargetID   int64             `json:"target_id"`
	TargetType social.TargetType `json:"target_type"`
	CreatedAt  time.Time         `json:"created_at"`
	IsRead     bool              `json:"is_read"`
}

type NotificationService struct {
	notifications repositories.INotificationRepository
	users         repositories.IUserRepository
	notifier      contract.INotifier
	monitoring    *observability.MonitoringManager
	log           *slog.Logger
}

func NewNotificationService(notifications repositories.INotificationRepository, users repositories.IUserRepository,
	notifier contract.INotifier, monitoring *observability.MonitoringManager, log *slog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		notifier:      notifier,
		monitoring:    monitoring,
		log:           log,
	}
}

// Notify commits the notification row and only then pushes text to the
// recipient's live channels. A failed commit publishes nothing.
func (s *NotificationService) Notify(ctx context.Context, n social.Notification, text string) (social.Notification, error) {
	stored, err := s.notifications.Create(n)
	if err != nil {
		return social.Notification{}, err
	}
	s.notifier.Publish(stored.Recipient, text)
	s.monitoring.IncrNoticesPublished()
	s.log.Debug("Notification sent", "recipient", stored.Recipient, "verb", stored.Verb)
	return stored, nil
}

// List returns the latest notifications of user, newest first.
func (s *NotificationService) List(ctx context.Context, user chat.UserID, limit int) ([]NotificationView, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	list, err := s.notifications.List(user, limit)
	if err != nil {
		return nil, err
	}

	actorIDs := lo.Uniq(lo.Map(list, func(n social.Notification, _ int) chat.UserID { return n.Actor }))
	actors, err := s.users.GetUsersByIDs(actorIDs)
	if err != nil {
		return nil, err
	}
	names := lo.SliceToMap(actors, func(u social.User) (chat.UserID, string) { return u.ID, u.Username })

	return lo.Map(list, func(n social.Notification, _ int) NotificationView {
		actor := names[n.Actor]
		return NotificationView{
			ID:         n.ID,
			Actor:      actor,
			Message:    social.Text(actor, n.Verb),
			TargetID:   n.TargetID,
			TargetType: n.TargetType,
			CreatedAt:  n.CreatedAt,
			IsRead:     n.IsRead,
		}
	}), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, user chat.UserID, id int64) error {
	return s.notifications.MarkRead(user, id)
}
