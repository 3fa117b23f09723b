package chat

import (
	"time"
)

// Attachment is a stored file referenced by a message.
type Attachment struct {
	FileName     string // name under the media root, e.g. chat_files/<uuid>_a.png
	OriginalName string
	FileType     string // declared or sniffed media type
	URL          string // retrievable locator served by the HTTP layer
}

// Message is an immutable persisted chat message.
// ID is assigned by the store and strictly increases.
type Message struct {
	ID         int64
	SenderID   UserID
	ReceiverID UserID
	Text       string
	Attachment *Attachment
	CreatedAt  time.Time
}

func (m Message) Room() Room {
	return NewRoom(m.SenderID, m.ReceiverID)
}

func (m Message) FileURL() *string {
	if m.Attachment == nil {
		return nil
	}
	return &m.Attachment.URL
}

func (m Message) FileType() *string {
	if m.Attachment == nil || m.Attachment.FileType == "" {
		return nil
	}
	return &m.Attachment.FileType
}

// Draft is a message accepted by a session but not stored yet.
type Draft struct {
	SenderID   UserID
	ReceiverID UserID
	Text       string
	Attachment *DecodedAttachment
}

// HistoryItem is the read-path representation of a stored message.
type HistoryItem struct {
	ID         int64     `json:"id"`
	SenderID   UserID    `json:"sender_id"`
	ReceiverID UserID    `json:"receiver_id"`
	Message    string    `json:"message"`
	FileURL    *string   `json:"file_url"`
	FileType   *string   `json:"file_type"`
	Timestamp  time.Time `json:"timestamp"`
}

func ToHistoryItem(m Message) HistoryItem {
	return HistoryItem{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Message:    m.Text,
		FileURL:    m.FileURL(),
		FileType:   m.FileType(),
		Timestamp:  m.CreatedAt,
	}
}
