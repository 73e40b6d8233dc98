//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chatnet/domain/event"
	"chatnet/moderation"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual
// naming in the Worker interface.
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

// EventSink is one consumer of fanned-out domain events, typically a
// live connection.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Resolver maps an event to the sinks that should receive it.
type Resolver interface {
	Resolve(e event.DomainEvent) []EventSink
}

// Responder is the opaque text-response collaborator. Implementations
// must be side-effect free from the coordinator's point of view.
type Responder interface {
	Respond(ctx context.Context, text, roomContext string) (string, error)
}

// Classifier rates message toxicity and censors flagged terms. Pure.
type Classifier interface {
	Classify(text string) moderation.Result
	Censor(text string) string
}

// Denylist is the durable ban list checked on every authentication.
type Denylist interface {
	Add(accountID, reason string) error
	Contains(accountID string) (bool, error)
}
