package domain

import (
	"time"
)

// Command is an inbound event addressed to the pairing core.
// Each command is handled as an independent, stateless invocation.
type Command interface {
	Sender() ParticipantID
}

// RequestAvailable marks the sender available and attempts a match.
// Issued on first contact (/start).
type RequestAvailable struct {
	Participant ParticipantID
	At          time.Time
}

func (c RequestAvailable) Sender() ParticipantID { return c.Participant }

// RequestMatch re-enters the pool and attempts a match (/search).
type RequestMatch struct {
	Participant ParticipantID
	At          time.Time
}

func (c RequestMatch) Sender() ParticipantID { return c.Participant }

// TextMessage carries ordinary text to be relayed to the sender's partner.
// Platform commands are filtered out before a TextMessage is built.
type TextMessage struct {
	Participant ParticipantID
	Content     string
	At          time.Time
}

func (c TextMessage) Sender() ParticipantID { return c.Participant }

// RequestStop terminates the sender's open conversation (/stop).
type RequestStop struct {
	Participant ParticipantID
	At          time.Time
}

func (c RequestStop) Sender() ParticipantID { return c.Participant }
