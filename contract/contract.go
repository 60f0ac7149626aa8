//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"concord/domain"
	"concord/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Supervision, restarts and panic recovery belong to the Supervisor.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
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

// EventSink is one live delivery target, typically the buffered channel
// feeding a session's write pump.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry answers "who should receive a message sent to channel X right
// now". Implementations must be safe under concurrent mutation from many
// sessions joining and leaving simultaneously.
type IRegistry interface {
	SinksFor(channelID domain.ChannelID) []EventSink
	Subscribe(connectionID string, channelID domain.ChannelID, sink EventSink)
	Unsubscribe(connectionID string, channelID domain.ChannelID)
	DropSession(connectionID string)
}
