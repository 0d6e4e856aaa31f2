package sink

import (
	"context"
	"sync"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
	"github.com/itzme-challa/TalkStranger-chatbot/domain/event"
)

// Transcript holds the messages delivered to one participant, most
// recent last. It is the receiving end of the local delivery path.
type Transcript struct {
	mu       sync.Mutex
	Owner    domain.ParticipantID
	Messages []string
}

func NewTranscript(owner domain.ParticipantID) *Transcript {
	return &Transcript{Owner: owner}
}

func (t *Transcript) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.NotificationDelivered:
		t.mu.Lock()
		t.Messages = append(t.Messages, evt.Content)
		t.mu.Unlock()
	}
	return nil
}

// Received returns a copy of the delivered messages.
func (t *Transcript) Received() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.Messages))
	copy(out, t.Messages)
	return out
}
