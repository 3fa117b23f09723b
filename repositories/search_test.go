package repositories

import (
	"context"
	"log/slog"
	"social-chat/domain/chat"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *bluge.Writer {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return writer
}

func TestMessageIndex_Search_In_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewMessageRepository(db, NewSequences(db), slog.Default(), nil)
	index := NewMessageIndex(openTestIndex(t), slog.Default())

	// Given messages in two rooms
	drafts := []chat.Message{
		{SenderID: 1, ReceiverID: 2, Text: "see you at the badger pub"},
		{SenderID: 2, ReceiverID: 1, Text: "the pub is closed on monday"},
		{SenderID: 1, ReceiverID: 3, Text: "badger pub tonight?"},
		{SenderID: 1, ReceiverID: 2, Attachment: &chat.Attachment{OriginalName: "menu.pdf", URL: "/media/chat_files/x_menu.pdf"}},
	}
	for _, d := range drafts {
		stored, err := repository.StoreMessage(d)
		req.NoError(err)
		req.NoError(index.Index(stored))
	}

	// When searching the first room
	keys, err := index.Search(context.Background(), chat.NewRoom(2, 1), "badger", 10)
	req.NoError(err)

	// Then only its matching message comes back
	messages, err := repository.GetByKeys(keys)
	req.NoError(err)
	req.Equal([]string{"see you at the badger pub"}, lo.Map(messages, func(m chat.Message, _ int) string { return m.Text }))

	keys, err = index.Search(context.Background(), chat.NewRoom(1, 2), "pub", 10)
	req.NoError(err)
	req.Len(keys, 2)

	// Attachment names are searchable
	keys, err = index.Search(context.Background(), chat.NewRoom(1, 2), "menu", 10)
	req.NoError(err)
	req.Len(keys, 1)

	// Blank terms match nothing
	keys, err = index.Search(context.Background(), chat.NewRoom(1, 2), "  ", 10)
	req.NoError(err)
	req.Empty(keys)
}
