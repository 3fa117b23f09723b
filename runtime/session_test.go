package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"social-chat/domain/chat"
	"social-chat/errors"
	"social-chat/mocks"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeConn is an in-memory Conn. Frames pushed with send are returned by
// ReadMessage until the connection is closed.
type fakeConn struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	written     []any
	closeCode   int
	closeReason string
	closeCalls  int
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) send(frame string) {
	c.inbound <- []byte(frame)
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case <-c.closed:
		return nil, io.EOF
	default:
	}
	select {
	case p := <-c.inbound:
		return p, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) WriteClose(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeCode == 0 {
		c.closeCode = code
		c.closeReason = reason
	}
	return nil
}

func (c *fakeConn) Ping() error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closeCalls++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Written() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.written...)
}

func (c *fakeConn) CloseCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

func (c *fakeConn) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

var (
	alice    = chat.Principal{UserID: 1, Username: "alice"}
	bob      = chat.Principal{UserID: 2, Username: "bob"}
	testRoom = chat.NewRoom(1, 2)
	cfg      = SessionConfig{BufferSize: 8, PingPeriod: time.Hour}
)

func serve(ctx context.Context, s *Session) <-chan error {
	res := make(chan error, 1)
	go func() { res <- s.Serve(ctx) }()
	return res
}

func waitServe(t *testing.T, res <-chan error) {
	t.Helper()
	select {
	case err := <-res:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSession_Authorize_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		principal chat.Principal
		err       error
		code      int
	}{
		{"malformed token", "chat_abc", alice, errors.ErrMalformedRoom, errors.CloseMalformedRoom},
		{"malformed before auth", "room_1_2", chat.Principal{}, errors.ErrMalformedRoom, errors.CloseMalformedRoom},
		{"zero user id", "chat_0_2", alice, errors.ErrMalformedRoom, errors.CloseMalformedRoom},
		{"anonymous", "chat_1_2", chat.Principal{}, errors.ErrUnauthenticated, errors.CloseUnauthenticated},
		{"not a member", "chat_2_3", alice, errors.ErrRoomMismatch, errors.CloseRoomMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			registry := newTestRegistry()
			conn := newFakeConn()
			session := NewChatSession(conn, registry, nil, slog.Default(), cfg)

			// When authorizing with a bad token or principal
			err := session.Authorize(tt.token, tt.principal)

			// Then the connection is closed with the matching code and nothing joined
			req.ErrorIs(err, tt.err)
			req.Equal(tt.code, conn.CloseCode())
			req.Equal(1, conn.CloseCalls())
			req.Equal(StateClosed, session.State())
			groups, connections := registry.Stats()
			req.Zero(groups)
			req.Zero(connections)

			// And the session can never be served
			req.ErrorIs(session.Serve(context.Background()), errors.ErrSessionState)
		})
	}
}

func TestSession_Authorize_Canonical_Group(t *testing.T) {
	req := require.New(t)
	session := NewChatSession(newFakeConn(), newTestRegistry(), nil, slog.Default(), cfg)

	req.NoError(session.Authorize("chat_2_1", bob))

	req.Equal(StateAuthorized, session.State())
	req.Equal(chat.GroupKey("chat_1_2"), session.Group())
	req.Equal(chat.UserID(1), session.Counterpart())
	req.ErrorIs(session.Authorize("chat_1_2", bob), errors.ErrSessionState)
}

func TestSession_Two_Users_Exchange_Messages(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	poster := mocks.NewMockIMessagePoster(ctrl)
	registry := newTestRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given Alice and Bob connected to the same room with tokens in either order
	aliceConn, bobConn := newFakeConn(), newFakeConn()
	aliceSession := NewChatSession(aliceConn, registry, poster, slog.Default(), cfg)
	bobSession := NewChatSession(bobConn, registry, poster, slog.Default(), cfg)
	req.NoError(aliceSession.Authorize("chat_1_2", alice))
	req.NoError(bobSession.Authorize("chat_2_1", bob))
	aliceDone := serve(ctx, aliceSession)
	bobDone := serve(ctx, bobSession)
	req.Eventually(func() bool { return registry.Members(testRoom.Group()) == 2 }, time.Second, 5*time.Millisecond)

	sent := chat.ChatMessage{ID: 1, Message: "hi", SenderID: 1, ReceiverID: 2, Timestamp: time.Now().UTC()}
	poster.EXPECT().
		Post(gomock.Any(), chat.UserID(1), chat.UserID(2), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ chat.UserID, in chat.InboundEvent) (chat.ChatMessage, error) {
			req.Equal("hi", in.Message)
			return sent, nil
		})

	// When Alice sends a message
	aliceConn.send(`{"message":"hi"}`)

	// Then both sides receive the same stored event
	req.Eventually(func() bool {
		return len(aliceConn.Written()) == 1 && len(bobConn.Written()) == 1
	}, time.Second, 5*time.Millisecond)
	req.Equal(sent, aliceConn.Written()[0])
	req.Equal(sent, bobConn.Written()[0])

	// When the server shuts down
	cancel()
	waitServe(t, aliceDone)
	waitServe(t, bobDone)

	// Then both connections got a going away close and the room is reclaimed
	req.Equal(errors.CloseGoingAway, aliceConn.CloseCode())
	req.Equal(errors.CloseGoingAway, bobConn.CloseCode())
	groups, connections := registry.Stats()
	req.Zero(groups)
	req.Zero(connections)
}

func TestSession_Drops_Invalid_Frames(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	poster := mocks.NewMockIMessagePoster(ctrl)
	registry := newTestRegistry()
	conn := newFakeConn()
	session := NewChatSession(conn, registry, poster, slog.Default(), cfg)
	req.NoError(session.Authorize("chat_1_2", alice))
	done := serve(context.Background(), session)

	// Only the last frame is valid
	poster.EXPECT().
		Post(gomock.Any(), chat.UserID(1), chat.UserID(2), gomock.Any()).
		Return(chat.ChatMessage{ID: 7, Message: "ok", SenderID: 1, ReceiverID: 2}, nil).
		Times(1)

	conn.send(`not json`)
	conn.send(`{"message":""}`)
	conn.send(`{"message":"photo","file_data":"QUJD"}`)
	conn.send(`{"message":"ok"}`)

	req.Eventually(func() bool { return len(conn.Written()) == 1 }, time.Second, 5*time.Millisecond)
	req.Equal(StateActive, session.State())

	// When the client goes away
	_ = conn.Close()
	waitServe(t, done)

	req.Equal(StateClosed, session.State())
	req.Zero(registry.Members(testRoom.Group()))
}

func TestSession_Ignores_Receiver_Override(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	poster := mocks.NewMockIMessagePoster(ctrl)
	conn := newFakeConn()
	session := NewChatSession(conn, newTestRegistry(), poster, slog.Default(), cfg)
	req.NoError(session.Authorize("chat_1_2", alice))
	done := serve(context.Background(), session)

	// The receiver is always the room counterpart
	poster.EXPECT().
		Post(gomock.Any(), chat.UserID(1), chat.UserID(2), gomock.Any()).
		Return(chat.ChatMessage{ID: 1, Message: "x", SenderID: 1, ReceiverID: 2}, nil)

	conn.send(`{"message":"x","receiver_id":99}`)

	req.Eventually(func() bool { return len(conn.Written()) == 1 }, time.Second, 5*time.Millisecond)
	session.Close()
	waitServe(t, done)
}

func TestSession_Poster_Failure_Is_Not_Broadcast(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	poster := mocks.NewMockIMessagePoster(ctrl)
	conn := newFakeConn()
	session := NewChatSession(conn, newTestRegistry(), poster, slog.Default(), cfg)
	req.NoError(session.Authorize("chat_1_2", alice))
	done := serve(context.Background(), session)

	second := chat.ChatMessage{ID: 2, Message: "second", SenderID: 1, ReceiverID: 2}
	gomock.InOrder(
		poster.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(chat.ChatMessage{}, fmt.Errorf("disk full")),
		poster.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(second, nil),
	)

	// When the first store fails
	conn.send(`{"message":"first"}`)
	conn.send(`{"message":"second"}`)

	// Then only the stored message is delivered and the session stays open
	req.Eventually(func() bool { return len(conn.Written()) == 1 }, time.Second, 5*time.Millisecond)
	req.Equal(second, conn.Written()[0])
	req.Equal(StateActive, session.State())

	session.Close()
	waitServe(t, done)
}

func TestSession_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry()
	conn := newFakeConn()
	session := NewChatSession(conn, registry, nil, slog.Default(), cfg)
	req.NoError(session.Authorize("chat_1_2", alice))
	done := serve(context.Background(), session)
	req.Eventually(func() bool { return registry.Members(testRoom.Group()) == 1 }, time.Second, 5*time.Millisecond)

	// When closing several times from several goroutines
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Close()
		}()
	}
	wg.Wait()
	waitServe(t, done)

	// Then the connection is released once and the registry forgets the session
	req.Equal(1, conn.CloseCalls())
	req.Equal(StateClosed, session.State())
	groups, _ := registry.Stats()
	req.Zero(groups)

	// And late events are refused
	req.ErrorIs(session.Consume(context.Background(), notice("late")), errors.ErrSessionClosed)
}

func TestSession_Close_Before_Serve(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry()
	session := NewChatSession(newFakeConn(), registry, nil, slog.Default(), cfg)
	req.NoError(session.Authorize("chat_1_2", alice))

	session.Close()

	req.ErrorIs(session.Serve(context.Background()), errors.ErrSessionState)
	groups, _ := registry.Stats()
	req.Zero(groups)
}

func TestNotificationSession_Receives_Published_Notices(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry()
	notifier := NewNotifier(registry, slog.Default())
	conn := newFakeConn()
	session := NewNotificationSession(conn, registry, slog.Default(), cfg)

	// Given Bob listening on his personal channel
	req.NoError(session.AuthorizeUser(bob))
	req.Equal(chat.UserGroup(2), session.Group())
	done := serve(context.Background(), session)
	req.Eventually(func() bool { return registry.Members(chat.UserGroup(2)) == 1 }, time.Second, 5*time.Millisecond)

	// When notices are published for Bob and for someone else
	notifier.Publish(2, "alice liked your post 'Holidays'")
	notifier.Publish(3, "not for bob")
	// Client frames on this channel are ignored
	conn.send(`{"message":"hello?"}`)

	// Then Bob only sees his own notice
	req.Eventually(func() bool { return len(conn.Written()) == 1 }, time.Second, 5*time.Millisecond)
	got, ok := conn.Written()[0].(chat.Notice)
	req.True(ok)
	req.Equal("alice liked your post 'Holidays'", got.Message)
	req.Equal(time.UTC, got.Timestamp.Location())

	session.Close()
	waitServe(t, done)
	req.Zero(registry.Members(chat.UserGroup(2)))
}

func TestNotificationSession_Rejects_Anonymous(t *testing.T) {
	req := require.New(t)
	conn := newFakeConn()
	session := NewNotificationSession(conn, newTestRegistry(), slog.Default(), cfg)

	req.ErrorIs(session.AuthorizeUser(chat.Principal{}), errors.ErrUnauthenticated)
	req.Equal(errors.CloseUnauthenticated, conn.CloseCode())
	req.Equal(StateClosed, session.State())
}
