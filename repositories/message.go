//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"regexp"
	"social-chat/domain/chat"
	"social-chat/errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	messagePrefix   = "msg:"
	messageSequence = "message"
)

var cursorPattern = regexp.MustCompile(`^\d{19}:\d{20}$`)

type IMessageRepository interface {
	StoreMessage(message chat.Message) (chat.Message, error)
	History(room chat.Room) ([]chat.Message, error)
	GetMessages(room chat.Room, cursor *string, limit int) ([]chat.Message, *string, error)
	GetByKeys(keys []string) ([]chat.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	seq           *Sequences
	log           *slog.Logger
	limitMessages *int

	// Serializes id and timestamp allocation with the write so that
	// id order, timestamp order and commit order agree.
	mu     sync.Mutex
	lastAt time.Time
}

func NewMessageRepository(db *badger.DB, seq *Sequences, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, seq: seq, log: log, limitMessages: limitMessages}
}

// MessageKey is formatted as "msg:{room}:{timestamp_padded}:{id_padded}":
//  1. 19-digit zero padded nanoseconds keep keys in chronological order.
//  2. The 20-digit id breaks ties between messages of the same nanosecond.
func MessageKey(m chat.Message) string {
	return fmt.Sprintf("%s%s:%019d:%020d", messagePrefix, m.Room().Group(), m.CreatedAt.UnixNano(), m.ID)
}

func roomPrefix(room chat.Room) string {
	return fmt.Sprintf("%s%s:", messagePrefix, room.Group())
}

// StoreMessage assigns the id and the server timestamp, then persists the message.
func (m *MessageRepository) StoreMessage(message chat.Message) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.seq.Next(messageSequence)
	if err != nil {
		return chat.Message{}, err
	}
	at := time.Now().UTC()
	if !at.After(m.lastAt) {
		at = m.lastAt.Add(time.Nanosecond)
	}

	message.ID = id
	message.CreatedAt = at
	key := MessageKey(message)

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encodeMessage(message))
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("store message: %w", err)
	}
	m.lastAt = at
	return message, nil
}

// History returns every message of a room in ascending order.
func (m *MessageRepository) History(room chat.Room) ([]chat.Message, error) {
	var messages []chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix(room))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetMessages pages backwards through a room, newest first.
// The returned cursor points at the last message of the page and is passed
// back to fetch the next, older page. limit <= 0 falls back to limitMessages.
func (m *MessageRepository) GetMessages(room chat.Room, cursor *string, limit int) ([]chat.Message, *string, error) {
	if cursor != nil && !cursorPattern.MatchString(*cursor) {
		return nil, nil, errors.ErrInvalidCursor
	}
	if limit <= 0 && m.limitMessages != nil {
		limit = *m.limitMessages
	}

	var messages []chat.Message
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := roomPrefix(room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Past the newest possible key of the room, then walk back
			seekKey = append([]byte(prefixStr), []byte("9999999999999999999:99999999999999999999")...)
		default:
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lastKey == "" {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// GetByKeys loads messages by full key, skipping keys that no longer exist.
func (m *MessageRepository) GetByKeys(keys []string) ([]chat.Message, error) {
	messages := make([]chat.Message, 0, len(keys))
	err := m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

func encodeMessage(m chat.Message) []byte {
	var w recordWriter
	w.int64(msgID, m.ID)
	w.int64(msgSender, int64(m.SenderID))
	w.int64(msgReceiver, int64(m.ReceiverID))
	w.string(msgText, m.Text)
	w.time(msgCreatedAt, m.CreatedAt)
	if a := m.Attachment; a != nil {
		w.string(msgFileName, a.FileName)
		w.string(msgOriginalName, a.OriginalName)
		w.string(msgFileType, a.FileType)
		w.string(msgFileURL, a.URL)
	}
	return w.bytes()
}

func decodeMessage(b []byte) (chat.Message, error) {
	var m chat.Message
	var a chat.Attachment
	err := readRecord(b, func(f field) {
		switch f.num {
		case msgID:
			m.ID = f.int64()
		case msgSender:
			m.SenderID = chat.UserID(f.int64())
		case msgReceiver:
			m.ReceiverID = chat.UserID(f.int64())
		case msgText:
			m.Text = f.string()
		case msgCreatedAt:
			m.CreatedAt = f.time()
		case msgFileName:
			a.FileName = f.string()
		case msgOriginalName:
			a.OriginalName = f.string()
		case msgFileType:
			a.FileType = f.string()
		case msgFileURL:
			a.URL = f.string()
		}
	})
	if err != nil {
		return chat.Message{}, err
	}
	if a.URL != "" {
		m.Attachment = &a
	}
	return m, nil
}
