//go:generate go run go.uber.org/mock/mockgen -source=notification.go -destination=../mocks/mock_notification_repository.go -package=mocks
package repositories

import (
	"fmt"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"social-chat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const notificationSequence = "notification"

type INotificationRepository interface {
	Create(n social.Notification) (social.Notification, error)
	List(recipient chat.UserID, limit int) ([]social.Notification, error)
	MarkRead(recipient chat.UserID, id int64) error
}

// NotificationRepository keys records by recipient so that listing is a
// prefix scan and a user can only ever reach their own notifications.
type NotificationRepository struct {
	db  *badger.DB
	seq *Sequences
}

func NewNotificationRepository(db *badger.DB, seq *Sequences) *NotificationRepository {
	return &NotificationRepository{db: db, seq: seq}
}

func notificationPrefix(recipient chat.UserID) string {
	return fmt.Sprintf("ntf:%020d:", recipient)
}

func notificationKey(recipient chat.UserID, id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", notificationPrefix(recipient), id))
}

// Create commits the notification and returns it with its id and timestamp.
func (r *NotificationRepository) Create(n social.Notification) (social.Notification, error) {
	id, err := r.seq.Next(notificationSequence)
	if err != nil {
		return social.Notification{}, err
	}
	n.ID = id
	n.CreatedAt = time.Now().UTC()
	n.IsRead = false

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(notificationKey(n.Recipient, n.ID), encodeNotification(n))
	})
	if err != nil {
		return social.Notification{}, fmt.Errorf("store notification: %w", err)
	}
	return n, nil
}

// List returns the newest notifications of a recipient first.
func (r *NotificationRepository) List(recipient chat.UserID, limit int) ([]social.Notification, error) {
	var notifications []social.Notification
	err := r.db.View(func(txn *badger.Txn) error {
		prefixStr := notificationPrefix(recipient)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek([]byte(prefixStr + "99999999999999999999")); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(notifications) == limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				n, err := decodeNotification(val)
				if err != nil {
					return err
				}
				notifications = append(notifications, n)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return notifications, err
}

func (r *NotificationRepository) MarkRead(recipient chat.UserID, id int64) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := notificationKey(recipient, id)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var n social.Notification
		err = item.Value(func(val []byte) error {
			n, err = decodeNotification(val)
			return err
		})
		if err != nil {
			return err
		}
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		return txn.Set(key, encodeNotification(n))
	})
	return notFound(err, errors.ErrNotificationGone)
}

func encodeNotification(n social.Notification) []byte {
	var w recordWriter
	w.int64(ntfID, n.ID)
	w.int64(ntfRecipient, int64(n.Recipient))
	w.int64(ntfActor, int64(n.Actor))
	w.string(ntfVerb, n.Verb)
	w.int64(ntfTargetID, n.TargetID)
	w.string(ntfTargetType, string(n.TargetType))
	w.time(ntfCreatedAt, n.CreatedAt)
	w.bool(ntfIsRead, n.IsRead)
	return w.bytes()
}

func decodeNotification(b []byte) (social.Notification, error) {
	var n social.Notification
	err := readRecord(b, func(f field) {
		switch f.num {
		case ntfID:
			n.ID = f.int64()
		case ntfRecipient:
			n.Recipient = chat.UserID(f.int64())
		case ntfActor:
			n.Actor = chat.UserID(f.int64())
		case ntfVerb:
			n.Verb = f.string()
		case ntfTargetID:
			n.TargetID = f.int64()
		case ntfTargetType:
			n.TargetType = social.TargetType(f.string())
		case ntfCreatedAt:
			n.CreatedAt = f.time()
		case ntfIsRead:
			n.IsRead = f.bool()
		}
	})
	return n, err
}
