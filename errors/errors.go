package errors

import "fmt"

// Transient outcomes. These are legitimate results of a request and are
// surfaced to the participant as guidance, never logged as failures.
var (
	ErrAlreadyPaired        = fmt.Errorf("participant already has an open conversation")
	ErrNoPartner            = fmt.Errorf("no partner available")
	ErrNoActiveConversation = fmt.Errorf("no active conversation")
)

// Delivery and infrastructure failures.
var (
	ErrDeliveryFailed      = fmt.Errorf("message delivery failed")
	ErrReservationConflict = fmt.Errorf("candidate reserved by a concurrent match")
	ErrStoreUnavailable    = fmt.Errorf("backing store unavailable")
	ErrConversationEnded   = fmt.Errorf("conversation already ended")
	ErrNotFound            = fmt.Errorf("record not found")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
)
