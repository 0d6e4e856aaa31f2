package domain

import (
	"time"
)

// ConversationID is a generated identifier, unique across concurrent creations.
type ConversationID string

// ConversationStatus is the lifecycle state of a conversation.
// Transitions: Pending -> Active -> Ended. A Pending conversation can also
// be aborted (removed without trace) when its reservation loses a race.
type ConversationStatus string

const (
	// ConversationPending marks a reserved pairing not yet confirmed.
	ConversationPending ConversationStatus = "pending"
	// ConversationActive marks a confirmed pairing relaying messages.
	ConversationActive ConversationStatus = "active"
	// ConversationEnded is terminal. Ended records are kept for reporting.
	ConversationEnded ConversationStatus = "ended"
)

// Conversation is a pairing between exactly two distinct participants.
// At any instant a participant belongs to at most one Pending or Active
// conversation.
type Conversation struct {
	ID        ConversationID
	MemberA   ParticipantID
	MemberB   ParticipantID
	Status    ConversationStatus
	CreatedAt time.Time
	EndedAt   *time.Time
}

func (c Conversation) HasMember(id ParticipantID) bool {
	return c.MemberA == id || c.MemberB == id
}

// OtherMember resolves the partner of the given member.
// The second return value is false when id is not a member at all.
func (c Conversation) OtherMember(id ParticipantID) (ParticipantID, bool) {
	switch id {
	case c.MemberA:
		return c.MemberB, true
	case c.MemberB:
		return c.MemberA, true
	}
	return "", false
}

// Open reports whether the conversation still claims its members.
func (c Conversation) Open() bool {
	return c.Status == ConversationPending || c.Status == ConversationActive
}
