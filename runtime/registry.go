// Package runtime handles inbound event dispatch and outcome notification.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"sync"

	"github.com/itzme-challa/TalkStranger-chatbot/contract"
	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

// Registry tracks the in-process sink of each connected participant.
// It backs the local notification path (development mode and tests);
// the production path addresses participants through the external
// transport instead and never consults the registry.
type Registry struct {
	mu       sync.RWMutex
	Sessions map[domain.ParticipantID]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions: make(map[domain.ParticipantID]contract.EventSink),
	}
}

// Sink resolves the active connection of a participant, if any.
func (r *Registry) Sink(id domain.ParticipantID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.Sessions[id]
	return sink, ok
}

// Subscribe registers a participant's active connection. A participant has
// a single connection; subscribing again replaces the previous sink.
func (r *Registry) Subscribe(id domain.ParticipantID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[id] = sink
}

// Unsubscribe drops the participant's connection so no stale sink is kept
// around after a disconnect.
func (r *Registry) Unsubscribe(id domain.ParticipantID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Sessions, id)
}
