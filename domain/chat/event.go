package chat

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventChatMessage  EventType = "chat_message"
	EventNotification EventType = "notification"
)

// Event is the closed set of frames pushed to a live connection.
// Only ChatMessage and Notice implement it.
type Event interface {
	Type() EventType
	isEvent()
}

// ChatMessage is broadcast to a room once the message has been persisted.
// FileData carries the attachment locator, never the raw bytes.
type ChatMessage struct {
	ID         int64
	Message    string
	FileData   *string
	FileType   *string
	SenderID   UserID
	ReceiverID UserID
	Timestamp  time.Time
}

func (ChatMessage) Type() EventType { return EventChatMessage }
func (ChatMessage) isEvent()        {}

func NewChatMessage(m Message) ChatMessage {
	return ChatMessage{
		ID:         m.ID,
		Message:    m.Text,
		FileData:   m.FileURL(),
		FileType:   m.FileType(),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Timestamp:  m.CreatedAt,
	}
}

func (c ChatMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       EventType `json:"type"`
		ID         int64     `json:"id"`
		Message    string    `json:"message"`
		FileData   *string   `json:"file_data"`
		FileType   *string   `json:"file_type"`
		SenderID   UserID    `json:"sender_id"`
		ReceiverID UserID    `json:"receiver_id"`
		Timestamp  string    `json:"timestamp"`
	}{
		Type:       c.Type(),
		ID:         c.ID,
		Message:    c.Message,
		FileData:   c.FileData,
		FileType:   c.FileType,
		SenderID:   c.SenderID,
		ReceiverID: c.ReceiverID,
		Timestamp:  c.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

// Notice is a transient notification pushed to a user's personal channel.
type Notice struct {
	Message   string
	Timestamp time.Time
}

func (Notice) Type() EventType { return EventNotification }
func (Notice) isEvent()        {}

func (n Notice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      EventType `json:"type"`
		Message   string    `json:"message"`
		Timestamp string    `json:"timestamp"`
	}{
		Type:      n.Type(),
		Message:   n.Message,
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}
