package event

import (
	"time"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

// DomainEvent is a fact emitted by the pairing core after a state change.
// Events feed observability sinks and in-process delivery; they are not
// part of the stored state.
type DomainEvent interface {
	OccurredAt() time.Time
}

// MatchFound is emitted once per successful pairing.
type MatchFound struct {
	Conversation domain.ConversationID
	MemberA      domain.ParticipantID
	MemberB      domain.ParticipantID
	At           time.Time
}

func (e MatchFound) OccurredAt() time.Time { return e.At }

// ConversationEnded is emitted when a conversation reaches its terminal state.
// Initiator is the member whose stop request caused the transition.
type ConversationEnded struct {
	Conversation domain.ConversationID
	Initiator    domain.ParticipantID
	Other        domain.ParticipantID
	At           time.Time
}

func (e ConversationEnded) OccurredAt() time.Time { return e.At }

// MessageForwarded is emitted after a relayed message reached its target.
type MessageForwarded struct {
	Conversation domain.ConversationID
	From         domain.ParticipantID
	To           domain.ParticipantID
	Content      string
	At           time.Time
}

func (e MessageForwarded) OccurredAt() time.Time { return e.At }

// NotificationDelivered is the payload handed to in-process sinks when the
// local notification path is used instead of an external transport.
type NotificationDelivered struct {
	To      domain.ParticipantID
	Content string
	At      time.Time
}

func (e NotificationDelivered) OccurredAt() time.Time { return e.At }
