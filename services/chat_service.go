package services

import (
	"context"
	"log/slog"
	"social-chat/domain/chat"
	"social-chat/moderation"
	"social-chat/observability"
	"social-chat/repositories"
	"social-chat/storage"

	"github.com/samber/lo"
)

const defaultSearchLimit = 20

type IChatService interface {
	Post(ctx context.Context, sender, receiver chat.UserID, in chat.InboundEvent) (chat.ChatMessage, error)
	History(ctx context.Context, viewer, other chat.UserID) ([]chat.HistoryItem, error)
	HistoryPage(ctx context.Context, viewer, other chat.UserID, cursor *string, limit int) ([]chat.HistoryItem, *string, error)
	Search(ctx context.Context, viewer, other chat.UserID, terms string, limit int) ([]chat.HistoryItem, error)
}

// ChatService persists inbound chat frames and serves the conversation read paths.
type ChatService struct {
	messages    repositories.IMessageRepository
	index       repositories.IMessageIndex
	users       repositories.IUserRepository
	attachments storage.IAttachmentStore
	moderator   *moderation.Moderator
	monitoring  *observability.MonitoringManager
	log         *slog.Logger
}

type ChatServiceOption func(*ChatService)

// WithModerator censors message texts before they are stored.
func WithModerator(m *moderation.Moderator) ChatServiceOption {
	return func(s *ChatService) { s.moderator = m }
}

// WithIndex makes stored messages searchable.
func WithIndex(index repositories.IMessageIndex) ChatServiceOption {
	return func(s *ChatService) { s.index = index }
}

func WithMonitoring(mm *observability.MonitoringManager) ChatServiceOption {
	return func(s *ChatService) { s.monitoring = mm }
}

func NewChatService(messages repositories.IMessageRepository, users repositories.IUserRepository,
	attachments storage.IAttachmentStore, log *slog.Logger, opts ...ChatServiceOption) *ChatService {
	s := &ChatService{messages: messages, users: users, attachments: attachments, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Post stores one inbound frame and returns the event to broadcast to the room.
// Nothing is stored when the attachment cannot be decoded or saved.
func (s *ChatService) Post(ctx context.Context, sender, receiver chat.UserID, in chat.InboundEvent) (chat.ChatMessage, error) {
	draft, err := chat.NewDraft(sender, receiver, in)
	if err != nil {
		s.monitoring.IncrMessagesDropped()
		return chat.ChatMessage{}, err
	}

	if s.moderator != nil && draft.Text != "" {
		var words []string
		draft.Text, words = s.moderator.Censor(draft.Text)
		if len(words) > 0 {
			s.log.Debug("Message censored", "sender_id", sender, "words", len(words))
		}
	}

	message := chat.Message{SenderID: draft.SenderID, ReceiverID: draft.ReceiverID, Text: draft.Text}
	if draft.Attachment != nil {
		saved, err := s.attachments.Save(ctx, draft.Attachment)
		if err != nil {
			s.monitoring.IncrMessagesDropped()
			return chat.ChatMessage{}, err
		}
		message.Attachment = &saved
		s.monitoring.AddAttachmentBytes(len(draft.Attachment.Data))
	}

	stored, err := s.messages.StoreMessage(message)
	if err != nil {
		s.monitoring.IncrMessagesDropped()
		if message.Attachment != nil {
			if rerr := s.attachments.Remove(*message.Attachment); rerr != nil {
				s.log.Warn("Attachment of a dropped message left on disk", "file", message.Attachment.FileName, "error", rerr)
			}
		}
		return chat.ChatMessage{}, err
	}
	s.monitoring.IncrMessagesStored()

	if s.index != nil {
		if err := s.index.Index(stored); err != nil {
			s.log.Warn("Message stored but not indexed", "id", stored.ID, "error", err)
		}
	}
	return chat.NewChatMessage(stored), nil
}

// History returns the whole conversation between viewer and other, oldest first.
func (s *ChatService) History(ctx context.Context, viewer, other chat.UserID) ([]chat.HistoryItem, error) {
	if _, err := s.users.GetUserByID(other); err != nil {
		return nil, err
	}
	messages, err := s.messages.History(chat.NewRoom(viewer, other))
	if err != nil {
		return nil, err
	}
	return toHistory(messages), nil
}

// HistoryPage returns one page of the conversation, newest first, with the
// cursor of the next older page.
func (s *ChatService) HistoryPage(ctx context.Context, viewer, other chat.UserID, cursor *string, limit int) ([]chat.HistoryItem, *string, error) {
	if _, err := s.users.GetUserByID(other); err != nil {
		return nil, nil, err
	}
	messages, next, err := s.messages.GetMessages(chat.NewRoom(viewer, other), cursor, limit)
	if err != nil {
		return nil, nil, err
	}
	return toHistory(messages), next, nil
}

// Search runs a full-text query over one conversation.
func (s *ChatService) Search(ctx context.Context, viewer, other chat.UserID, terms string, limit int) ([]chat.HistoryItem, error) {
	if s.index == nil {
		return []chat.HistoryItem{}, nil
	}
	if _, err := s.users.GetUserByID(other); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	keys, err := s.index.Search(ctx, chat.NewRoom(viewer, other), terms, limit)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.GetByKeys(keys)
	if err != nil {
		return nil, err
	}
	return toHistory(messages), nil
}

func toHistory(messages []chat.Message) []chat.HistoryItem {
	return lo.Map(messages, func(m chat.Message, _ int) chat.HistoryItem {
		return chat.ToHistoryItem(m)
	})
}
