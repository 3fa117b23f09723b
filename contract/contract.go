//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"social-chat/domain/chat"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the events addressed to one live connection.
type EventSink interface {
	Consume(ctx context.Context, e chat.Event) error
}

// BacklogReporter is implemented by sinks that buffer events before writing them.
type BacklogReporter interface {
	Backlog() (length, capacity int)
}

// Backlog is a sample of one buffered sink.
type Backlog struct {
	Group    chat.GroupKey
	Length   int
	Capacity int
}

type IRegistry interface {
	Join(group chat.GroupKey, sink EventSink)
	Leave(group chat.GroupKey, sink EventSink)
	Broadcast(ctx context.Context, group chat.GroupKey, e chat.Event)
}

// INotifier pushes transient notices to a user's personal channel.
// It never reports delivery failures.
type INotifier interface {
	Publish(user chat.UserID, message string)
}

// IMessagePoster persists an inbound chat frame and returns the event to broadcast.
type IMessagePoster interface {
	Post(ctx context.Context, sender, receiver chat.UserID, in chat.InboundEvent) (chat.ChatMessage, error)
}

// Conn is the transport of a single live connection.
// Reads happen on one goroutine and writes on another.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	WriteClose(code int, reason string) error
	Ping() error
	Close() error
}
