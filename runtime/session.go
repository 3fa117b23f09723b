package runtime

import (
	"context"
	"log/slog"
	"social-chat/contract"
	"social-chat/domain/chat"
	"social-chat/errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthorized
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthorized:
		return "authorized"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type SessionConfig struct {
	BufferSize int
	PingPeriod time.Duration
}

// Session drives one live connection through
// Connecting -> Authorized -> Active -> Closed.
// A closed session is never reopened.
//
// The read loop persists and broadcasts inbound frames one at a time, so a
// sender's message N+1 is never broadcast before message N is stored.
// Outbound events are queued by Consume and written by a single write pump.
type Session struct {
	id       string
	conn     contract.Conn
	registry contract.IRegistry
	poster   contract.IMessagePoster
	log      *slog.Logger
	cfg      SessionConfig

	state       atomic.Int32
	principal   chat.Principal
	group       chat.GroupKey
	counterpart chat.UserID
	joined      atomic.Bool

	outbound  chan chat.Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewChatSession builds a session for a room connection.
func NewChatSession(conn contract.Conn, registry contract.IRegistry, poster contract.IMessagePoster,
	log *slog.Logger, cfg SessionConfig) *Session {
	return newSession(conn, registry, poster, log, cfg)
}

// NewNotificationSession builds a session for a personal notification channel.
// Inbound frames are read and discarded.
func NewNotificationSession(conn contract.Conn, registry contract.IRegistry,
	log *slog.Logger, cfg SessionConfig) *Session {
	return newSession(conn, registry, nil, log, cfg)
}

func newSession(conn contract.Conn, registry contract.IRegistry, poster contract.IMessagePoster,
	log *slog.Logger, cfg SessionConfig) *Session {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		conn:     conn,
		registry: registry,
		poster:   poster,
		log:      log.With("session_id", id),
		cfg:      cfg,
		outbound: make(chan chat.Event, cfg.BufferSize),
		done:     make(chan struct{}),
	}
}

func (s *Session) ID() string                { return s.id }
func (s *Session) State() SessionState       { return SessionState(s.state.Load()) }
func (s *Session) Group() chat.GroupKey      { return s.group }
func (s *Session) Counterpart() chat.UserID  { return s.counterpart }
func (s *Session) Principal() chat.Principal { return s.principal }

// Backlog reports how many events wait for the write pump.
func (s *Session) Backlog() (length, capacity int) {
	return len(s.outbound), cap(s.outbound)
}

// Authorize resolves a room token for the principal. On failure the
// connection is closed with the code matching the failure and the
// session ends in Closed.
func (s *Session) Authorize(token string, principal chat.Principal) error {
	if s.State() != StateConnecting {
		return errors.ErrSessionState
	}
	room, err := chat.ResolveRoom(token, principal)
	if err != nil {
		s.reject(err)
		return err
	}
	s.principal = principal
	s.group = room.Group()
	s.counterpart = room.Counterpart(principal.UserID)
	s.state.Store(int32(StateAuthorized))
	s.log = s.log.With("user_id", principal.UserID, "group", s.group)
	return nil
}

// AuthorizeUser binds a notification session to the principal's own channel.
func (s *Session) AuthorizeUser(principal chat.Principal) error {
	if s.State() != StateConnecting {
		return errors.ErrSessionState
	}
	if !principal.Authenticated() {
		s.reject(errors.ErrUnauthenticated)
		return errors.ErrUnauthenticated
	}
	s.principal = principal
	s.group = chat.UserGroup(principal.UserID)
	s.state.Store(int32(StateAuthorized))
	s.log = s.log.With("user_id", principal.UserID, "group", s.group)
	return nil
}

func (s *Session) reject(err error) {
	s.log.Info("Connection rejected", "code", errors.CloseCode(err), "error", err)
	if werr := s.conn.WriteClose(errors.CloseCode(err), err.Error()); werr != nil {
		s.log.Debug("Failed to send close frame", "error", werr)
	}
	s.Close()
}

// Serve joins the registry and blocks until the connection ends or ctx is canceled.
func (s *Session) Serve(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateAuthorized), int32(StateActive)) {
		return errors.ErrSessionState
	}

	s.registry.Join(s.group, s)
	s.joined.Store(true)
	select {
	case <-s.done:
		// Closed while joining
		s.registry.Leave(s.group, s)
		return nil
	default:
	}
	s.log.Debug("Session active", "counterpart", s.counterpart)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writePump()
	}()
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			_ = s.conn.WriteClose(errors.CloseGoingAway, "server shutting down")
			s.Close()
		case <-s.done:
		}
	}()

	s.readLoop(ctx)
	s.Close()
	wg.Wait()
	return nil
}

// Consume queues an event for the write pump.
// Events addressed to a closed session are discarded.
func (s *Session) Consume(ctx context.Context, e chat.Event) error {
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	default:
	}
	select {
	case s.outbound <- e:
		return nil
	case <-s.done:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close leaves the registry and releases the connection. Safe to call
// from any state and any number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		if s.joined.Load() {
			s.registry.Leave(s.group, s)
		}
		if err := s.conn.Close(); err != nil {
			s.log.Debug("Closing connection failed", "error", err)
		}
		s.log.Debug("Session closed")
	})
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		payload, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debug("Read loop stopped", "error", err)
			return
		}
		if s.poster == nil {
			continue
		}
		s.handle(ctx, payload)
	}
}

// handle persists one inbound frame and broadcasts it to the room.
// Every failure here drops the frame and keeps the session open.
func (s *Session) handle(ctx context.Context, payload []byte) {
	in, err := chat.DecodeInbound(payload)
	if err != nil {
		s.log.Debug("Dropping undecodable frame", "error", err)
		return
	}
	if err := in.Validate(); err != nil {
		s.log.Debug("Dropping invalid frame", "error", err)
		return
	}
	if in.HasReceiverOverride() {
		s.log.Warn("Ignoring receiver override", "receiver_id", string(in.ReceiverOverride), "counterpart", s.counterpart)
	}

	evt, err := s.poster.Post(ctx, s.principal.UserID, s.counterpart, in)
	if err != nil {
		s.log.Warn("Dropping message", "error", err)
		return
	}
	s.registry.Broadcast(ctx, s.group, evt)
}

func (s *Session) writePump() {
	var tick <-chan time.Time
	if s.cfg.PingPeriod > 0 {
		ticker := time.NewTicker(s.cfg.PingPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.done:
			return
		case e := <-s.outbound:
			if err := s.conn.WriteJSON(e); err != nil {
				s.log.Debug("Write failed, closing session", "error", err)
				s.Close()
				return
			}
		case <-tick:
			if err := s.conn.Ping(); err != nil {
				s.log.Debug("Ping failed, closing session", "error", err)
				s.Close()
				return
			}
		}
	}
}
