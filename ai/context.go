package ai

import (
	"sync"

	"github.com/itzme-challa/TalkStranger-chatbot/domain"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type Turn struct {
	Role    string
	Content string
}

// ContextBuffer keeps a bounded conversation history per chat so the
// responder stays coherent across messages without growing memory
// unbounded. Oldest turns are dropped once a chat exceeds maxTurns
// exchanges (one exchange = user message + model answer).
type ContextBuffer struct {
	mu       sync.Mutex
	maxTurns int
	chats    map[domain.ParticipantID][]Turn
}

func NewContextBuffer(maxTurns int) *ContextBuffer {
	return &ContextBuffer{
		maxTurns: maxTurns,
		chats:    make(map[domain.ParticipantID][]Turn),
	}
}

func (b *ContextBuffer) Push(chat domain.ParticipantID, role, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns := append(b.chats[chat], Turn{Role: role, Content: content})
	for len(turns) > b.maxTurns*2 {
		turns = turns[1:]
	}
	b.chats[chat] = turns
}

// History returns a copy of the chat's retained turns, oldest first.
func (b *ContextBuffer) History(chat domain.ParticipantID) []Turn {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns := b.chats[chat]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (b *ContextBuffer) Reset(chat domain.ParticipantID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.chats, chat)
}
