package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"social-chat/domain/chat"
	"social-chat/domain/social"
	"social-chat/errors"
	"social-chat/mocks"
	"social-chat/moderation"
	"social-chat/storage"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type chatFixture struct {
	messages    *mocks.MockIMessageRepository
	index       *mocks.MockIMessageIndex
	users       *mocks.MockIUserRepository
	attachments *mocks.MockIAttachmentStore
	service     *ChatService
}

func newChatFixture(t *testing.T, opts ...ChatServiceOption) chatFixture {
	ctrl := gomock.NewController(t)
	f := chatFixture{
		messages:    mocks.NewMockIMessageRepository(ctrl),
		index:       mocks.NewMockIMessageIndex(ctrl),
		users:       mocks.NewMockIUserRepository(ctrl),
		attachments: mocks.NewMockIAttachmentStore(ctrl),
	}
	opts = append([]ChatServiceOption{WithIndex(f.index)}, opts...)
	f.service = NewChatService(f.messages, f.users, f.attachments, slog.Default(), opts...)
	return f
}

// stamp mimics the store assigning an id and a timestamp.
func stamp(id int64) func(m chat.Message) (chat.Message, error) {
	return func(m chat.Message) (chat.Message, error) {
		m.ID = id
		m.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		return m, nil
	}
}

func TestChatService_Post_Text(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	f.messages.EXPECT().
		StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Text: "hi"}).
		DoAndReturn(stamp(10))
	f.index.EXPECT().Index(gomock.Any()).Return(nil)

	// When Alice posts a text
	evt, err := f.service.Post(context.Background(), 1, 2, chat.InboundEvent{Message: "hi"})

	// Then the event carries the stored id and no file
	req.NoError(err)
	req.Equal(int64(10), evt.ID)
	req.Equal("hi", evt.Message)
	req.Equal(chat.UserID(1), evt.SenderID)
	req.Equal(chat.UserID(2), evt.ReceiverID)
	req.Nil(evt.FileData)
	req.Nil(evt.FileType)
}

func TestChatService_Post_Attachment(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	saved := chat.Attachment{
		FileName: "chat_files/u_a.png", OriginalName: "a.png", FileType: "image/png", URL: "/media/chat_files/u_a.png",
	}

	gomock.InOrder(
		f.attachments.EXPECT().
			Save(gomock.Any(), &chat.DecodedAttachment{Data: []byte("ABC"), OriginalName: "a.png", FileType: "image/png"}).
			Return(saved, nil),
		f.messages.EXPECT().
			StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Attachment: &saved}).
			DoAndReturn(stamp(11)),
		f.index.EXPECT().Index(gomock.Any()).Return(nil),
	)

	// When posting an image without text
	evt, err := f.service.Post(context.Background(), 1, 2, chat.InboundEvent{
		FileData: "data:image/png;base64,QUJD", FileName: "a.png", FileType: "image/png",
	})

	// Then the event points at the stored file
	req.NoError(err)
	req.Equal("", evt.Message)
	req.Equal("/media/chat_files/u_a.png", *evt.FileData)
	req.Equal("image/png", *evt.FileType)
}

func TestChatService_Post_Bad_Attachment_Is_Not_Stored(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	// No store interaction is expected
	_, err := f.service.Post(context.Background(), 1, 2, chat.InboundEvent{
		Message: "look", FileData: "data:image/png;base64,!!!", FileName: "a.png",
	})
	req.ErrorIs(err, errors.ErrAttachmentEncoding)
}

func TestChatService_Post_Store_Failures(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	// Attachment store failure
	f.attachments.EXPECT().Save(gomock.Any(), gomock.Any()).Return(chat.Attachment{}, fmt.Errorf("disk full"))
	_, err := f.service.Post(context.Background(), 1, 2, chat.InboundEvent{FileData: "QUJD", FileName: "a.txt"})
	req.ErrorContains(err, "disk full")

	// Message store failure, nothing indexed
	f.messages.EXPECT().StoreMessage(gomock.Any()).Return(chat.Message{}, fmt.Errorf("badger closed"))
	_, err = f.service.Post(context.Background(), 1, 2, chat.InboundEvent{Message: "hi"})
	req.ErrorContains(err, "badger closed")
}

func TestChatService_Post_Store_Failure_Removes_Attachment(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockIMessageRepository(ctrl)
	root := t.TempDir()
	disk, err := storage.NewDiskStore(root, "/media", false, slog.Default())
	req.NoError(err)
	service := NewChatService(messages, mocks.NewMockIUserRepository(ctrl), disk, slog.Default())

	// Given a message store refusing every write
	messages.EXPECT().StoreMessage(gomock.Any()).Return(chat.Message{}, fmt.Errorf("disk full"))

	// When posting an attachment
	_, err = service.Post(context.Background(), 1, 2, chat.InboundEvent{
		FileData: "data:image/png;base64,QUJD", FileName: "a.png", FileType: "image/png",
	})

	// Then the message is dropped and its file is gone
	req.ErrorContains(err, "disk full")
	entries, err := os.ReadDir(filepath.Join(root, "chat_files"))
	req.NoError(err)
	req.Empty(entries)
}

func TestChatService_Post_Store_Failure_Removes_Saved_File(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	saved := chat.Attachment{FileName: "chat_files/u_a.txt", OriginalName: "a.txt", URL: "/media/chat_files/u_a.txt"}

	gomock.InOrder(
		f.attachments.EXPECT().Save(gomock.Any(), gomock.Any()).Return(saved, nil),
		f.messages.EXPECT().StoreMessage(gomock.Any()).Return(chat.Message{}, fmt.Errorf("badger closed")),
		f.attachments.EXPECT().Remove(saved).Return(nil),
	)

	_, err := f.service.Post(context.Background(), 1, 2, chat.InboundEvent{FileData: "QUJD", FileName: "a.txt"})
	req.ErrorContains(err, "badger closed")
}

func TestChatService_Post_Index_Failure_Is_Ignored(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	f.messages.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(stamp(3))
	f.index.EXPECT().Index(gomock.Any()).Return(fmt.Errorf("index closed"))

	evt, err := f.service.Post(context.Background(), 1, 2, chat.InboundEvent{Message: "hi"})
	req.NoError(err)
	req.Equal(int64(3), evt.ID)
}

func TestChatService_Post_Moderated(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"badger"}, '*', slog.Default())
	req.NoError(err)
	f := newChatFixture(t, WithModerator(moderator))

	f.messages.EXPECT().
		StoreMessage(chat.Message{SenderID: 1, ReceiverID: 2, Text: "hello ******"}).
		DoAndReturn(stamp(1))
	f.index.EXPECT().Index(gomock.Any()).Return(nil)

	evt, err := f.service.Post(context.Background(), 1, 2, chat.InboundEvent{Message: "hello badger"})
	req.NoError(err)
	req.Equal("hello ******", evt.Message)
}

func TestChatService_History(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// Given a conversation of two messages
	f.users.EXPECT().GetUserByID(chat.UserID(2)).Return(social.User{ID: 2, Username: "bob"}, nil)
	f.messages.EXPECT().History(chat.NewRoom(2, 1)).Return([]chat.Message{
		{ID: 1, SenderID: 1, ReceiverID: 2, Text: "hi", CreatedAt: at},
		{ID: 2, SenderID: 2, ReceiverID: 1, Attachment: &chat.Attachment{URL: "/media/x", FileType: "text/plain"}, CreatedAt: at.Add(time.Second)},
	}, nil)

	// When Alice asks for it
	items, err := f.service.History(context.Background(), 1, 2)

	// Then items are in order with file fields
	req.NoError(err)
	req.Len(items, 2)
	req.Equal("hi", items[0].Message)
	req.Nil(items[0].FileURL)
	req.Equal("/media/x", *items[1].FileURL)
	req.Equal("text/plain", *items[1].FileType)
}

func TestChatService_History_Unknown_User(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	f.users.EXPECT().GetUserByID(chat.UserID(99)).Return(social.User{}, errors.ErrUserNotFound)

	_, err := f.service.History(context.Background(), 1, 99)
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestChatService_HistoryPage(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	cursor := "0000000000000000001:00000000000000000002"

	f.users.EXPECT().GetUserByID(chat.UserID(2)).Return(social.User{ID: 2}, nil)
	f.messages.EXPECT().GetMessages(chat.NewRoom(1, 2), gomock.Nil(), 1).
		Return([]chat.Message{{ID: 2, SenderID: 1, ReceiverID: 2, Text: "latest"}}, &cursor, nil)

	items, next, err := f.service.HistoryPage(context.Background(), 1, 2, nil, 1)
	req.NoError(err)
	req.Len(items, 1)
	req.Equal(&cursor, next)
}

func TestChatService_Search(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	f.users.EXPECT().GetUserByID(chat.UserID(2)).Return(social.User{ID: 2}, nil)
	f.index.EXPECT().Search(gomock.Any(), chat.NewRoom(1, 2), "badger", defaultSearchLimit).Return([]string{"k1"}, nil)
	f.messages.EXPECT().GetByKeys([]string{"k1"}).Return([]chat.Message{{ID: 5, SenderID: 2, ReceiverID: 1, Text: "a badger"}}, nil)

	items, err := f.service.Search(context.Background(), 1, 2, "badger", 0)
	req.NoError(err)
	req.Len(items, 1)
	req.Equal(int64(5), items[0].ID)
}
