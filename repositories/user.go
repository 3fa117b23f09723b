//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"social-chat/errors"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const userSequence = "user"

type IUserRepository interface {
	CreateUser(username, email, hashedPassword string) (social.User, error)
	GetUserByUsername(username string) (social.User, error)
	GetUserByID(id chat.UserID) (social.User, error)
	GetUsersByIDs(ids []chat.UserID) ([]social.User, error)
}

type UserRepository struct {
	db  *badger.DB
	seq *Sequences
}

func NewUserRepository(db *badger.DB, seq *Sequences) *UserRepository {
	return &UserRepository{db: db, seq: seq}
}

func userKey(id chat.UserID) []byte {
	return []byte(fmt.Sprintf("user:id:%020d", id))
}

// Usernames and emails are unique case-insensitively.
func usernameKey(username string) []byte {
	return []byte("user:name:" + strings.ToLower(username))
}

func emailKey(email string) []byte {
	return []byte("user:email:" + strings.ToLower(email))
}

// CreateUser persists an account with an already hashed password.
func (u *UserRepository) CreateUser(username, email, hashedPassword string) (social.User, error) {
	id, err := u.seq.Next(userSequence)
	if err != nil {
		return social.User{}, err
	}
	user := social.User{
		ID:           chat.UserID(id),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{usernameKey(username), emailKey(email)} {
			if _, err := txn.Get(key); err == nil {
				return errors.ErrUserAlreadyExists
			} else if err != badger.ErrKeyNotFound {
				return err
			}
		}
		idValue := []byte(strconv.FormatInt(id, 10))
		if err := txn.Set(usernameKey(username), idValue); err != nil {
			return err
		}
		if err := txn.Set(emailKey(email), idValue); err != nil {
			return err
		}
		return txn.Set(userKey(user.ID), encodeUser(user))
	})
	if err != nil {
		return social.User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByUsername(username string) (social.User, error) {
	var user social.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: username index %q", errors.ErrMalformedRecord, raw)
		}
		user, err = getUser(txn, chat.UserID(id))
		return err
	})
	return user, notFound(err, errors.ErrUserNotFound)
}

func (u *UserRepository) GetUserByID(id chat.UserID) (social.User, error) {
	var user social.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, notFound(err, errors.ErrUserNotFound)
}

// GetUsersByIDs skips ids that do not exist.
func (u *UserRepository) GetUsersByIDs(ids []chat.UserID) ([]social.User, error) {
	users := make([]social.User, 0, len(ids))
	err := u.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			user, err := getUser(txn, id)
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	return users, err
}

func getUser(txn *badger.Txn, id chat.UserID) (social.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		return social.User{}, err
	}
	var user social.User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}

// notFound translates badger's missing key into a domain error.
func notFound(err error, domainErr error) error {
	if err == badger.ErrKeyNotFound {
		return domainErr
	}
	return err
}

func encodeUser(user social.User) []byte {
	var w recordWriter
	w.int64(usrID, int64(user.ID))
	w.string(usrUsername, user.Username)
	w.string(usrEmail, user.Email)
	w.string(usrPasswordHash, user.PasswordHash)
	w.time(usrCreatedAt, user.CreatedAt)
	return w.bytes()
}

func decodeUser(b []byte) (social.User, error) {
	var user social.User
	err := readRecord(b, func(f field) {
		switch f.num {
		case usrID:
			user.ID = chat.UserID(f.int64())
		case usrUsername:
			user.Username = f.string()
		case usrEmail:
			user.Email = f.string()
		case usrPasswordHash:
			user.PasswordHash = f.string()
		case usrCreatedAt:
			user.CreatedAt = f.time()
		}
	})
	return user, err
}
