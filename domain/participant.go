// Package domain contains core concepts of the pairing system.
// This file defines Participant entities and their availability states.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"
)

// ParticipantID is the platform-assigned identifier of a chat participant.
// It is opaque to the core: the system never parses or orders it.
type ParticipantID string

// Status is the availability state of a participant.
type Status string

const (
	// StatusOffline is the implicit state of any participant the system
	// has never seen, and of participants that explicitly left the pool.
	StatusOffline Status = "offline"
	// StatusAvailable marks a participant waiting to be matched.
	StatusAvailable Status = "available"
	// StatusPaired marks a participant currently inside an open conversation.
	StatusPaired Status = "paired"
)

type Participant struct {
	ID        ParticipantID
	Status    Status
	UpdatedAt time.Time
}
