//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	"github.com/itzme-challa/TalkStranger-chatbot/domain/event"
)

// NotificationSink delivers a message to a participant out-of-band.
// Implementations are assumed fallible; callers treat delivery as
// best-effort and never roll back state on its result.
type NotificationSink interface {
	Send(ctx context.Context, to domain.ParticipantID, content string) error
}

// IParticipantDirectory tracks the availability status of every participant.
// Unknown ids behave as offline; there is no distinct "unknown" error.
type IParticipantDirectory interface {
	// SetAvailable idempotently marks a participant available, unless the
	// participant is currently paired, in which case nothing is written and
	// the existing status is reported.
	SetAvailable(id domain.ParticipantID) (domain.Status, error)
	// SetPaired and SetOffline are unconditional writes driven by
	// conversation transitions.
	SetPaired(id domain.ParticipantID) error
	SetOffline(id domain.ParticipantID) error
	// Release unconditionally returns a former conversation member to the
	// available pool. Used only by conversation teardown.
	Release(id domain.ParticipantID) error
	// ListAvailable returns available participants other than excluding,
	// in unspecified order.
	ListAvailable(excluding domain.ParticipantID) ([]domain.ParticipantID, error)
	// Get returns the stored participant record. Unknown ids come back
	// offline with a zero UpdatedAt.
	Get(id domain.ParticipantID) (domain.Participant, error)
}

// IConversationStore owns conversation records and is the sole writer of
// their status. The reservation step (CreatePending) is the critical
// section guarding the at-most-one-open-conversation invariant.
type IConversationStore interface {
	// CreatePending reserves a pairing. It fails with ErrReservationConflict
	// when either member already holds an open conversation at commit time.
	CreatePending(memberA, memberB domain.ParticipantID) (domain.Conversation, error)
	// Confirm promotes a pending conversation to active.
	Confirm(id domain.ConversationID) error
	// Abort removes a pending conversation without keeping a record.
	Abort(id domain.ConversationID) error
	// Terminate moves a conversation to its terminal state and returns the
	// final record. Terminating an ended conversation is a no-op success.
	Terminate(id domain.ConversationID) (domain.Conversation, error)
	// ActiveFor returns the single open conversation claiming the
	// participant, if any. Expired pending reservations are not reported.
	ActiveFor(id domain.ParticipantID) (domain.Conversation, bool, error)
	Get(id domain.ConversationID) (domain.Conversation, error)
}

// EventSink consumes domain events emitted by the runtime.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
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

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// IRegistry maps connected participants to their in-process sinks.
type IRegistry interface {
	Sink(id domain.ParticipantID) (EventSink, bool)
	Subscribe(id domain.ParticipantID, sink EventSink)
	Unsubscribe(id domain.ParticipantID)
}
