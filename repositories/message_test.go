package repositories

import (
	"log/slog"
	"social-chat/domain/chat"
	"social-chat/errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_Multiple_Message(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, NewSequences(db), slog.Default(), nil)

	// Given three messages alternating between both participants
	texts := []string{"hi", "hello", "how are you"}
	for i, text := range texts {
		sender, receiver := chat.UserID(1), chat.UserID(2)
		if i%2 == 1 {
			sender, receiver = receiver, sender
		}
		stored, err := repository.StoreMessage(chat.Message{SenderID: sender, ReceiverID: receiver, Text: text})
		req.NoError(err)
		req.Equal(int64(i+1), stored.ID)
		req.False(stored.CreatedAt.IsZero())
	}

	// When reading the history
	history, err := repository.History(chat.NewRoom(2, 1))
	req.NoError(err)

	// Then it is in insertion order with strictly increasing ids and timestamps
	req.Len(history, 3)
	req.Equal(texts, lo.Map(history, func(m chat.Message, _ int) string { return m.Text }))
	for i := 1; i < len(history); i++ {
		req.Greater(history[i].ID, history[i-1].ID)
		req.True(history[i].CreatedAt.After(history[i-1].CreatedAt))
	}
	req.Equal(chat.UserID(1), history[0].SenderID)
	req.Equal(chat.UserID(2), history[0].ReceiverID)
	req.Nil(history[0].Attachment)
}

func Test_History_Is_Scoped_To_The_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, NewSequences(db), slog.Default(), nil)

	_, err := repository.StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Text: "for 2"})
	req.NoError(err)
	_, err = repository.StoreMessage(chat.Message{SenderID: 1, ReceiverID: 20, Text: "for 20"})
	req.NoError(err)

	// chat_1_2 must not match the chat_1_20 prefix
	history, err := repository.History(chat.NewRoom(1, 2))
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("for 2", history[0].Text)

	history, err = repository.History(chat.NewRoom(3, 4))
	req.NoError(err)
	req.Empty(history)
}

func Test_Record_Message_With_Attachment(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, NewSequences(db), slog.Default(), nil)
	attachment := &chat.Attachment{
		FileName:     "chat_files/abc_a.png",
		OriginalName: "a.png",
		FileType:     "image/png",
		URL:          "/media/chat_files/abc_a.png",
	}

	stored, err := repository.StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Attachment: attachment})
	req.NoError(err)

	history, err := repository.History(chat.NewRoom(1, 2))
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(stored, history[0])
	req.Equal(attachment, history[0].Attachment)
	req.Empty(history[0].Text)
}

func Test_Record_Multiple_Message_And_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	limit := 2
	repository := NewMessageRepository(db, NewSequences(db), slog.Default(), &limit)
	room := chat.NewRoom(1, 2)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := repository.StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Text: text})
		req.NoError(err)
	}

	// First page holds the newest messages
	page, cursor, err := repository.GetMessages(room, nil, 0)
	req.NoError(err)
	req.Equal([]string{"five", "four"}, lo.Map(page, func(m chat.Message, _ int) string { return m.Text }))
	req.NotNil(cursor)

	// Next page starts right after the cursor
	page, cursor, err = repository.GetMessages(room, cursor, 0)
	req.NoError(err)
	req.Equal([]string{"three", "two"}, lo.Map(page, func(m chat.Message, _ int) string { return m.Text }))

	page, cursor, err = repository.GetMessages(room, cursor, 0)
	req.NoError(err)
	req.Equal([]string{"one"}, lo.Map(page, func(m chat.Message, _ int) string { return m.Text }))

	// Exhausted
	page, cursor, err = repository.GetMessages(room, cursor, 0)
	req.NoError(err)
	req.Empty(page)
	req.Nil(cursor)

	// An explicit limit wins over the default
	page, _, err = repository.GetMessages(room, nil, 4)
	req.NoError(err)
	req.Len(page, 4)
}

func Test_GetMessages_Rejects_Invalid_Cursor(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, NewSequences(db), slog.Default(), nil)

	_, _, err := repository.GetMessages(chat.NewRoom(1, 2), lo.ToPtr("garbage"), 10)
	req.ErrorIs(err, errors.ErrInvalidCursor)
}

func Test_Ids_Keep_Increasing_After_Reopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	seq := NewSequences(db)
	first, err := NewMessageRepository(db, seq, slog.Default(), nil).
		StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Text: "before"})
	req.NoError(err)
	req.NoError(seq.Release())
	req.NoError(db.Close())

	db, err = badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	second, err := NewMessageRepository(db, NewSequences(db), slog.Default(), nil).
		StoreMessage(chat.Message{SenderID: 2, ReceiverID: 1, Text: "after"})
	req.NoError(err)

	req.Greater(second.ID, first.ID)
}

func Test_GetByKeys(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, NewSequences(db), slog.Default(), nil)

	stored, err := repository.StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Text: "find me"})
	req.NoError(err)

	messages, err := repository.GetByKeys([]string{MessageKey(stored), "msg:chat_1_2:missing"})
	req.NoError(err)
	req.Equal([]chat.Message{stored}, messages)
}

func Test_Decode_Skips_Unknown_Fields(t *testing.T) {
	req := require.New(t)

	// Given a record written by a newer version with an extra field
	var w recordWriter
	w.int64(msgID, 7)
	w.string(msgText, "hi")
	w.string(99, "future")

	m, err := decodeMessage(w.bytes())
	req.NoError(err)
	req.Equal(int64(7), m.ID)
	req.Equal("hi", m.Text)

	// Truncated record
	_, err = decodeMessage(w.bytes()[:3])
	req.ErrorIs(err, errors.ErrMalformedRecord)
}
